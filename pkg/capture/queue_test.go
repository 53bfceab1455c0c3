package capture

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"guildtrack/pkg/stats"
)

// gatedPipeline blocks each Process call until released and records order.
type gatedPipeline struct {
	gate chan struct{}
	mu   sync.Mutex
	seen []string
}

func (g *gatedPipeline) Process(ctx context.Context, imagePath string, meta Meta) (stats.Profile, error) {
	<-g.gate
	g.mu.Lock()
	g.seen = append(g.seen, imagePath)
	g.mu.Unlock()
	return stats.Profile{Name: "p", Tag: "1", GuildName: "g"}, nil
}

func (g *gatedPipeline) order() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.seen...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestQueueProcessesFIFO(t *testing.T) {
	p := &gatedPipeline{gate: make(chan struct{})}
	q := New(p)
	q.linger = time.Millisecond

	q.Enqueue("a.png", Meta{})
	q.Enqueue("b.png", Meta{})
	q.Enqueue("c.png", Meta{})
	close(p.gate)

	waitFor(t, func() bool { return len(p.order()) == 3 })
	if got := strings.Join(p.order(), ","); got != "a.png,b.png,c.png" {
		t.Fatalf("expected FIFO order, got %s", got)
	}
	waitFor(t, func() bool {
		s := q.Snapshot()
		return s.QueueLength == 0 && !s.IsProcessing
	})
}

func TestQueueClearLeavesInFlight(t *testing.T) {
	p := &gatedPipeline{gate: make(chan struct{})}
	q := New(p)
	q.linger = time.Millisecond

	q.Enqueue("a.png", Meta{})
	q.Enqueue("b.png", Meta{})
	q.Enqueue("c.png", Meta{})
	waitFor(t, func() bool { return q.Snapshot().IsProcessing })

	if dropped := q.Clear(); dropped != 2 {
		t.Fatalf("expected 2 dropped, got %d", dropped)
	}
	close(p.gate)
	waitFor(t, func() bool { return len(p.order()) == 1 })
	time.Sleep(20 * time.Millisecond)
	if got := p.order(); len(got) != 1 || got[0] != "a.png" {
		t.Fatalf("only the in-flight item should finish, got %v", got)
	}
}

func TestQueueBroadcastsTransitions(t *testing.T) {
	p := &gatedPipeline{gate: make(chan struct{})}
	q := New(p)
	q.linger = time.Millisecond

	var mu sync.Mutex
	var statuses []Status
	cancel := q.Subscribe(func(s Snapshot) {
		mu.Lock()
		if s.Current != nil {
			statuses = append(statuses, s.Current.Status)
		}
		mu.Unlock()
	})
	defer cancel()

	close(p.gate)
	id := q.Enqueue("a.png", Meta{})
	if id == "" {
		t.Fatalf("expected an item id")
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range statuses {
			if s == StatusCompleted {
				return true
			}
		}
		return false
	})
	mu.Lock()
	defer mu.Unlock()
	sawProcessing := false
	for _, s := range statuses {
		if s == StatusProcessing {
			sawProcessing = true
		}
	}
	if !sawProcessing {
		t.Fatalf("expected a processing snapshot before completion, got %v", statuses)
	}
}

func TestQueueRecordsFailure(t *testing.T) {
	q := New(PipelineFunc(func(ctx context.Context, imagePath string, meta Meta) (stats.Profile, error) {
		return stats.Profile{}, context.DeadlineExceeded
	}))
	q.linger = 200 * time.Millisecond

	var mu sync.Mutex
	var last *Item
	cancel := q.Subscribe(func(s Snapshot) {
		mu.Lock()
		if s.Current != nil && (s.Current.Status == StatusFailed || s.Current.Status == StatusCompleted) {
			cp := *s.Current
			last = &cp
		}
		mu.Unlock()
	})
	defer cancel()

	q.Enqueue("bad.png", Meta{})
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last != nil
	})
	mu.Lock()
	defer mu.Unlock()
	if last.Status != StatusFailed || last.Err == "" {
		t.Fatalf("expected failed item with reason, got %+v", last)
	}
}
