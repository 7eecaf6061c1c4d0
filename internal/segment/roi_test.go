package segment

import (
	"testing"

	"weight-estimator/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionTransitions(t *testing.T) {
	accept := Event{Kind: EventAccept}
	reset := Event{Kind: EventReset}
	quit := Event{Kind: EventQuit}

	tests := []struct {
		name   string
		events []Event
		want   Selection
	}{
		{
			name:   "press starts a drag",
			events: []Event{Press(5, 6)},
			want: Selection{
				State:  StateDragging,
				Anchor: geometry.NewPointInt(5, 6),
				Rect:   geometry.NewRectInt(5, 6, 0, 0),
			},
		},
		{
			name:   "move previews the rectangle",
			events: []Event{Press(10, 10), Move(4, 20)},
			want: Selection{
				State:  StateDragging,
				Anchor: geometry.NewPointInt(10, 10),
				Rect:   geometry.NewRectInt(4, 10, 6, 10),
			},
		},
		{
			name:   "move without press is ignored",
			events: []Event{Move(4, 20)},
			want:   Selection{},
		},
		{
			name:   "release finishes the rectangle",
			events: []Event{Press(1, 2), Release(11, 22)},
			want: Selection{
				State:  StateIdle,
				Anchor: geometry.NewPointInt(1, 2),
				Rect:   geometry.NewRectInt(1, 2, 10, 20),
			},
		},
		{
			name:   "accept commits",
			events: []Event{Press(1, 2), Release(11, 22), accept},
			want: Selection{
				State:  StateCommitted,
				Anchor: geometry.NewPointInt(1, 2),
				Rect:   geometry.NewRectInt(1, 2, 10, 20),
			},
		},
		{
			name:   "accept without a rectangle does nothing",
			events: []Event{accept},
			want:   Selection{},
		},
		{
			name:   "accept of a zero-width drag does nothing",
			events: []Event{Press(3, 3), Release(3, 9), accept},
			want: Selection{
				State:  StateIdle,
				Anchor: geometry.NewPointInt(3, 3),
				Rect:   geometry.NewRectInt(3, 3, 0, 6),
			},
		},
		{
			name:   "accept while dragging does nothing",
			events: []Event{Press(0, 0), Move(5, 5), accept},
			want: Selection{
				State:  StateDragging,
				Anchor: geometry.NewPointInt(0, 0),
				Rect:   geometry.NewRectInt(0, 0, 5, 5),
			},
		},
		{
			name:   "reset clears",
			events: []Event{Press(1, 2), Release(11, 22), reset},
			want:   Selection{},
		},
		{
			name:   "quit cancels",
			events: []Event{Press(1, 2), quit},
			want: Selection{
				State:  StateCancelled,
				Anchor: geometry.NewPointInt(1, 2),
				Rect:   geometry.NewRectInt(1, 2, 0, 0),
			},
		},
		{
			name:   "committed selection is final",
			events: []Event{Press(1, 2), Release(11, 22), accept, reset, Press(0, 0), quit},
			want: Selection{
				State:  StateCommitted,
				Anchor: geometry.NewPointInt(1, 2),
				Rect:   geometry.NewRectInt(1, 2, 10, 20),
			},
		},
		{
			name:   "cancelled selection is final",
			events: []Event{quit, Press(1, 1), Release(5, 5), accept},
			want:   Selection{State: StateCancelled},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Selection{}.Run(tt.events...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("selection mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleDoesNotMutateReceiver(t *testing.T) {
	start := Selection{}.Run(Press(1, 1), Release(4, 4))
	_ = start.Handle(Event{Kind: EventAccept})
	assert.Equal(t, StateIdle, start.State)
}

func TestSelectRect(t *testing.T) {
	sel := SelectRect(geometry.NewRectInt(10, 20, 30, 40))
	assert.Equal(t, StateCommitted, sel.State)
	assert.Equal(t, geometry.NewRectInt(10, 20, 30, 40), sel.Rect)
	assert.True(t, sel.Done())

	sel = SelectRect(geometry.NewRectInt(10, 20, 0, 40))
	assert.Equal(t, StateIdle, sel.State)
	assert.False(t, sel.Done())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "committed", StateCommitted.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestParseRect(t *testing.T) {
	r, err := ParseRect("10, 20,30,40")
	require.NoError(t, err)
	assert.Equal(t, geometry.NewRectInt(10, 20, 30, 40), r)

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,0,5", "-1,0,5,5", "1,2,3,4,5"} {
		_, err := ParseRect(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestInsetRect(t *testing.T) {
	assert.Equal(t, geometry.NewRectInt(10, 5, 80, 40), InsetRect(100, 50, 10))
	assert.Equal(t, geometry.NewRectInt(0, 0, 100, 50), InsetRect(100, 50, -5))
	assert.False(t, InsetRect(100, 100, 80).Empty(), "inset is clamped below half the frame")
}
