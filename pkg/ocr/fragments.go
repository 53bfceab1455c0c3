package ocr

// Point is one corner of a recognition bounding box, in image pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Fragment is a single word- or phrase-level detection as an engine reports
// it, before any layout reconstruction.
type Fragment struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        []Point `json:"box,omitempty"`
}

// Line is a horizontal reading-order line assembled from fragments (or
// reported directly by an engine that does its own line segmentation).
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        []Point `json:"box,omitempty"`
}

// HasBox reports whether the fragment carries usable geometry.
func (f Fragment) HasBox() bool { return len(f.Box) > 0 }

func meanY(box []Point) float64 {
	if len(box) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range box {
		sum += p.Y
	}
	return sum / float64(len(box))
}

func meanX(box []Point) float64 {
	if len(box) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range box {
		sum += p.X
	}
	return sum / float64(len(box))
}

func minX(box []Point) float64 {
	v := box[0].X
	for _, p := range box[1:] {
		if p.X < v {
			v = p.X
		}
	}
	return v
}

func maxX(box []Point) float64 {
	v := box[0].X
	for _, p := range box[1:] {
		if p.X > v {
			v = p.X
		}
	}
	return v
}

// unionBox returns the axis-aligned rectangle covering both boxes, as the
// usual 4-point clockwise polygon.
func unionBox(a, b []Point) []Point {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	minx, miny := a[0].X, a[0].Y
	maxx, maxy := a[0].X, a[0].Y
	for _, p := range append(append([]Point{}, a...), b...) {
		if p.X < minx {
			minx = p.X
		}
		if p.X > maxx {
			maxx = p.X
		}
		if p.Y < miny {
			miny = p.Y
		}
		if p.Y > maxy {
			maxy = p.Y
		}
	}
	return []Point{{minx, miny}, {maxx, miny}, {maxx, maxy}, {minx, maxy}}
}
