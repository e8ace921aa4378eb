package input

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/locomotion/internal/data"
	"github.com/l1jgo/locomotion/internal/locomotion"
)

// Timeline replays scenario segments. Sprint is reported as pressed on the
// first tick of a segment that holds it after one that did not; jump fires on
// a segment's first tick only.
type Timeline struct {
	segments []data.Segment
	elapsed  float64
	index    int
	started  bool
	prevHeld bool
	loop     bool
}

// NewTimeline drops segments without a positive duration.
func NewTimeline(segments []data.Segment, loop bool) *Timeline {
	kept := make([]data.Segment, 0, len(segments))
	for _, s := range segments {
		if s.Duration > 0 {
			kept = append(kept, s)
		}
	}
	return &Timeline{segments: kept, loop: loop}
}

// Done reports whether a non-looping timeline has run out. Afterwards Poll
// returns an idle intent.
func (t *Timeline) Done() bool {
	return !t.loop && t.index >= len(t.segments)
}

func (t *Timeline) Poll(dt time.Duration) locomotion.Intent {
	if len(t.segments) == 0 || t.Done() {
		t.prevHeld = false
		return locomotion.Intent{}
	}

	seg := t.segments[t.index]
	first := !t.started
	t.started = true

	in := locomotion.Intent{
		Direction:     mgl64.Vec2{seg.Move[0], seg.Move[1]},
		Yaw:           mgl64.DegToRad(seg.Yaw),
		Sprint:        seg.Sprint,
		SprintPressed: seg.Sprint && !t.prevHeld,
		Crouch:        seg.Crouch,
		Jump:          seg.Jump && first,
	}
	t.prevHeld = seg.Sprint

	t.advance(dt.Seconds())
	return in
}

// epsilon absorbs float drift when dt does not divide a segment exactly.
const epsilon = 1e-9

func (t *Timeline) advance(sec float64) {
	t.elapsed += sec
	for t.index < len(t.segments) && t.elapsed+epsilon >= t.segments[t.index].Duration {
		t.elapsed = math.Max(0, t.elapsed-t.segments[t.index].Duration)
		t.index++
		t.started = false
		if t.index == len(t.segments) && t.loop {
			t.index = 0
		}
	}
}
