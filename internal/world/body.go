package world

import "github.com/go-gl/mathgl/mgl64"

// groundEpsilon absorbs float noise when deciding ground contact.
const groundEpsilon = 1e-9

// FlatBody is a kinematic body over an infinite ground plane at y = 0. It
// stands in for a physics engine in headless runs.
type FlatBody struct {
	pos   mgl64.Vec3
	start mgl64.Vec3
	moved float64
}

func NewFlatBody(startHeight float64) *FlatBody {
	p := mgl64.Vec3{0, startHeight, 0}
	return &FlatBody{pos: p, start: p}
}

func (b *FlatBody) Position() mgl64.Vec3 { return b.pos }

// Distance is the planar distance travelled since spawn.
func (b *FlatBody) Distance() float64 { return b.moved }

func (b *FlatBody) Grounded() bool { return b.pos.Y() <= groundEpsilon }

// Move applies d and stops at the ground plane.
func (b *FlatBody) Move(d mgl64.Vec3) {
	b.moved += mgl64.Vec2{d.X(), d.Z()}.Len()
	b.pos = b.pos.Add(d)
	if b.pos.Y() < 0 {
		b.pos[1] = 0
	}
}

func (b *FlatBody) Reset() {
	b.pos = b.start
	b.moved = 0
}
