package capture

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"guildtrack/pkg/stats"
)

// Status is the lifecycle state of a queue item.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Meta is producer-supplied context for a capture.
type Meta struct {
	SourceLabel string `json:"source_label"`
	Region      string `json:"region"`
}

// Item is one capture moving through the queue. The queue exclusively owns
// item lifecycle; observers only ever see copies.
type Item struct {
	ID          string         `json:"id"`
	ImagePath   string         `json:"image_path"`
	Meta        Meta           `json:"meta"`
	Status      Status         `json:"status"`
	Result      *stats.Profile `json:"result,omitempty"`
	Err         string         `json:"error,omitempty"`
	EnqueuedAt  time.Time      `json:"enqueued_at"`
	StartedAt   time.Time      `json:"started_at,omitempty"`
	CompletedAt time.Time      `json:"completed_at,omitempty"`
}

// Snapshot is pushed to subscribers on every state transition.
type Snapshot struct {
	QueueLength  int   `json:"queue_length"`
	IsProcessing bool  `json:"is_processing"`
	Current      *Item `json:"current_item,omitempty"`
}

// Pipeline runs one capture through recognition, extraction, validation and
// persistence. An error becomes the item's Failed reason; it is never
// retried automatically.
type Pipeline interface {
	Process(ctx context.Context, imagePath string, meta Meta) (stats.Profile, error)
}

// PipelineFunc adapts a function to the Pipeline interface.
type PipelineFunc func(ctx context.Context, imagePath string, meta Meta) (stats.Profile, error)

func (f PipelineFunc) Process(ctx context.Context, imagePath string, meta Meta) (stats.Profile, error) {
	return f(ctx, imagePath, meta)
}

// defaultLinger is how long a terminal item stays visible before the next
// dequeue, so observers can read its outcome.
const defaultLinger = 1500 * time.Millisecond

// Queue is the single-consumer sequential capture queue. Producers may
// enqueue concurrently, but captures run strictly one at a time, in FIFO
// order, each to completion or failure before the next begins. The queue is
// the sole mutator of its internal state; every transition is followed by a
// synchronous snapshot broadcast, so observers never see torn state.
type Queue struct {
	pipeline Pipeline
	linger   time.Duration

	mu      sync.Mutex
	pending []*Item
	current *Item
	running bool
	subs    map[int]func(Snapshot)
	nextSub int
}

// New builds a queue around the given pipeline. The worker starts lazily on
// the first enqueue.
func New(pipeline Pipeline) *Queue {
	return &Queue{
		pipeline: pipeline,
		linger:   defaultLinger,
		subs:     make(map[int]func(Snapshot)),
	}
}

// Enqueue registers a capture and returns its opaque id. Never blocks on
// processing; if the worker is idle it is started.
func (q *Queue) Enqueue(imagePath string, meta Meta) string {
	item := &Item{
		ID:         uuid.NewString(),
		ImagePath:  imagePath,
		Meta:       meta,
		Status:     StatusQueued,
		EnqueuedAt: time.Now(),
	}
	q.mu.Lock()
	q.pending = append(q.pending, item)
	start := !q.running
	if start {
		q.running = true
	}
	q.broadcastLocked()
	q.mu.Unlock()
	if start {
		go q.run()
	}
	log.Printf("queue: enqueued %s source=%s pending=%d", item.ID, meta.SourceLabel, q.Len())
	return item.ID
}

// run is the single worker loop. At most one item is ever Processing.
func (q *Queue) run() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.broadcastLocked()
			q.mu.Unlock()
			return
		}
		item := q.pending[0]
		q.pending = q.pending[1:]
		item.Status = StatusProcessing
		item.StartedAt = time.Now()
		q.current = item
		q.broadcastLocked()
		q.mu.Unlock()

		profile, err := q.pipeline.Process(context.Background(), item.ImagePath, item.Meta)

		q.mu.Lock()
		if err != nil {
			item.Status = StatusFailed
			item.Err = err.Error()
			log.Printf("queue: item %s failed: %v", item.ID, err)
		} else {
			item.Status = StatusCompleted
			item.Result = &profile
			log.Printf("queue: item %s completed id=%s guild=%s", item.ID, profile.ID(), profile.GuildName)
		}
		item.CompletedAt = time.Now()
		q.broadcastLocked()
		q.mu.Unlock()

		// hold the terminal item briefly for observers, then clear it and
		// move on
		time.Sleep(q.linger)
		q.mu.Lock()
		q.current = nil
		q.broadcastLocked()
		q.mu.Unlock()
	}
}

// Clear discards all queued items and returns how many were dropped. An
// in-flight item is never touched; there is no cancellation of in-progress
// recognition.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	q.pending = nil
	q.broadcastLocked()
	return n
}

// Len returns the number of queued (not yet started) items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Snapshot returns the current observable state.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Subscribe registers a callback invoked synchronously on every state
// transition. Callbacks run under the queue lock and must not call back
// into the queue; hand off to a channel for anything slow. The returned
// function cancels the subscription.
func (q *Queue) Subscribe(fn func(Snapshot)) func() {
	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	q.mu.Unlock()
	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}
}

func (q *Queue) snapshotLocked() Snapshot {
	snap := Snapshot{
		QueueLength:  len(q.pending),
		IsProcessing: q.current != nil && q.current.Status == StatusProcessing,
	}
	if q.current != nil {
		cp := *q.current
		snap.Current = &cp
	}
	return snap
}

func (q *Queue) broadcastLocked() {
	snap := q.snapshotLocked()
	for _, fn := range q.subs {
		fn(snap)
	}
}
