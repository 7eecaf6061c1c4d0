package segment

import (
	"fmt"
	"strconv"
	"strings"

	"weight-estimator/pkg/geometry"
)

// State is the phase of a region-of-interest selection.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateCommitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// EventKind identifies an input to the selection state machine.
type EventKind int

const (
	EventPress   EventKind = iota // Button down: start a rectangle
	EventMove                     // Pointer moved
	EventRelease                  // Button up: finish the rectangle
	EventReset                    // Discard the rectangle
	EventAccept                   // Confirm the rectangle
	EventQuit                     // Abandon selection
)

// Event is one input to Selection.Handle.
type Event struct {
	Kind  EventKind
	Point geometry.PointInt
}

// Press, Move and Release build pointer events.
func Press(x, y int) Event   { return Event{Kind: EventPress, Point: geometry.NewPointInt(x, y)} }
func Move(x, y int) Event    { return Event{Kind: EventMove, Point: geometry.NewPointInt(x, y)} }
func Release(x, y int) Event { return Event{Kind: EventRelease, Point: geometry.NewPointInt(x, y)} }

// Selection is the full state of an ROI selection. It is a value: Handle
// returns the next state and never modifies the receiver.
type Selection struct {
	State  State
	Anchor geometry.PointInt // Where the current drag started
	Rect   geometry.RectInt  // Current rectangle (preview while dragging)
}

// Handle applies one event. Committed and cancelled selections are final.
// Accept with an empty rectangle leaves the selection unchanged.
func (s Selection) Handle(ev Event) Selection {
	if s.Done() {
		return s
	}

	switch ev.Kind {
	case EventQuit:
		s.State = StateCancelled
	case EventReset:
		return Selection{}
	case EventPress:
		s.State = StateDragging
		s.Anchor = ev.Point
		s.Rect = geometry.RectInt{X: ev.Point.X, Y: ev.Point.Y}
	case EventMove:
		if s.State == StateDragging {
			s.Rect = geometry.RectFromCorners(s.Anchor, ev.Point)
		}
	case EventRelease:
		if s.State == StateDragging {
			s.State = StateIdle
			s.Rect = geometry.RectFromCorners(s.Anchor, ev.Point)
		}
	case EventAccept:
		if s.State == StateIdle && !s.Rect.Empty() {
			s.State = StateCommitted
		}
	}
	return s
}

// Run feeds events in order and returns the resulting selection.
func (s Selection) Run(events ...Event) Selection {
	for _, ev := range events {
		s = s.Handle(ev)
	}
	return s
}

// Done reports whether the selection reached a final state.
func (s Selection) Done() bool {
	return s.State == StateCommitted || s.State == StateCancelled
}

// SelectRect drives a selection for a rectangle that is already known, such
// as one given on the command line.
func SelectRect(r geometry.RectInt) Selection {
	return Selection{}.Run(
		Press(r.X, r.Y),
		Release(r.X+r.Width, r.Y+r.Height),
		Event{Kind: EventAccept},
	)
}

// ParseRect parses "x,y,w,h".
func ParseRect(s string) (geometry.RectInt, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.RectInt{}, fmt.Errorf("rect %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geometry.RectInt{}, fmt.Errorf("rect %q: %w", s, err)
		}
		v[i] = n
	}
	r := geometry.NewRectInt(v[0], v[1], v[2], v[3])
	if r.Empty() || r.X < 0 || r.Y < 0 {
		return geometry.RectInt{}, fmt.Errorf("rect %q: must have non-negative origin and positive size", s)
	}
	return r, nil
}

// InsetRect returns a rectangle covering the frame minus a margin of pct
// percent of each dimension on every side.
func InsetRect(width, height int, pct float64) geometry.RectInt {
	if pct < 0 {
		pct = 0
	}
	if pct >= 50 {
		pct = 49
	}
	dx := int(float64(width) * pct / 100)
	dy := int(float64(height) * pct / 100)
	return geometry.NewRectInt(dx, dy, width-2*dx, height-2*dy)
}
