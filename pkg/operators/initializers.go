package operators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/particles"
)

// RandomScalar draws a scalar attribute in [min, max] shaped by exponent.
// It backs lifetime_random, radius_random and alpha_random.
type RandomScalar struct {
	name     string
	field    attribute.Kind
	min, max float64
	exponent float64
}

func scalarInitializer(name string, field attribute.Kind) func(p *particles.Params) (particles.Unit, error) {
	return func(p *particles.Params) (particles.Unit, error) {
		lo, hi := p.OrderedRange("min", "max")
		return &RandomScalar{name: name, field: field, min: lo, max: hi, exponent: p.Float("exponent")}, nil
	}
}

func (r *RandomScalar) Info() particles.Info {
	return particles.Info{Name: r.name, Writes: attribute.MaskOf(r.field)}
}

func (r *RandomScalar) InitNewParticles(c *particles.Collection, start, n int, ctx any) {
	col := c.Store().FloatsForWrite(r.field)
	for i := start; i < start+n; i++ {
		col[i] = c.RandomFloatExp(r.min, r.max, r.exponent)
	}
}

// ColorRandom picks a tint between two colors.
type ColorRandom struct {
	color1, color2 mgl64.Vec3
}

func newColorRandom(p *particles.Params) (particles.Unit, error) {
	return &ColorRandom{color1: p.Color("color1"), color2: p.Color("color2")}, nil
}

func (r *ColorRandom) Info() particles.Info {
	return particles.Info{Name: "color_random", Writes: attribute.MaskOf(attribute.Tint)}
}

func (r *ColorRandom) InitNewParticles(c *particles.Collection, start, n int, ctx any) {
	tint := c.Store().VecsForWrite(attribute.Tint)
	for i := start; i < start+n; i++ {
		t := c.RandomFloat(0, 1)
		tint[i] = r.color1.Add(r.color2.Sub(r.color1).Mul(t))
	}
}

// RotationRandom sets the initial rotation and rotation speed (degrees in
// the definition, radians in the attributes).
type RotationRandom struct {
	initial              float64
	offsetMin, offsetMax float64
	speedMin, speedMax   float64
}

func newRotationRandom(p *particles.Params) (particles.Unit, error) {
	oMin, oMax := p.OrderedRange("rotation_offset_min", "rotation_offset_max")
	sMin, sMax := p.OrderedRange("speed_min", "speed_max")
	return &RotationRandom{
		initial:   mgl64.DegToRad(p.Float("rotation_initial")),
		offsetMin: mgl64.DegToRad(oMin),
		offsetMax: mgl64.DegToRad(oMax),
		speedMin:  mgl64.DegToRad(sMin),
		speedMax:  mgl64.DegToRad(sMax),
	}, nil
}

func (r *RotationRandom) Info() particles.Info {
	return particles.Info{
		Name:   "rotation_random",
		Writes: attribute.MaskOf(attribute.Rotation, attribute.RotationSpeed),
	}
}

func (r *RotationRandom) InitNewParticles(c *particles.Collection, start, n int, ctx any) {
	rot := c.Store().FloatsForWrite(attribute.Rotation)
	spd := c.Store().FloatsForWrite(attribute.RotationSpeed)
	for i := start; i < start+n; i++ {
		rot[i] = r.initial + c.RandomFloat(r.offsetMin, r.offsetMax)
		spd[i] = c.RandomFloat(r.speedMin, r.speedMax)
	}
}

// PositionWithinSphere places particles at a random distance from a control
// point (sampled at each particle's birth time) and gives them an outward
// speed plus an optional velocity in the control point's local frame.
type PositionWithinSphere struct {
	cp                 int
	distMin, distMax   float64
	bias               mgl64.Vec3
	speedMin, speedMax float64
	localMin, localMax mgl64.Vec3
}

func newPositionWithinSphere(p *particles.Params) (particles.Unit, error) {
	dMin, dMax := p.OrderedRange("distance_min", "distance_max")
	sMin, sMax := p.OrderedRange("speed_min", "speed_max")
	return &PositionWithinSphere{
		cp:       p.ControlPoint("control_point"),
		distMin:  dMin,
		distMax:  dMax,
		bias:     p.Vector("distance_bias"),
		speedMin: sMin,
		speedMax: sMax,
		localMin: p.Vector("local_speed_min"),
		localMax: p.Vector("local_speed_max"),
	}, nil
}

func (r *PositionWithinSphere) Info() particles.Info {
	return particles.Info{
		Name:          "position_within_sphere",
		Reads:         attribute.MaskOf(attribute.CreationTime),
		Writes:        maskPosition,
		ControlPoints: particles.CP(r.cp),
	}
}

func (r *PositionWithinSphere) InitNewParticles(c *particles.Collection, start, n int, ctx any) {
	st := c.Store()
	born := st.Floats(attribute.CreationTime)
	xyz := st.VecsForWrite(attribute.XYZ)
	prev := st.VecsForWrite(attribute.PrevXYZ)
	dt := c.Dt()

	for i := start; i < start+n; i++ {
		m := c.GetControlPointTransformAtTime(r.cp, born[i])
		center := m.Col(3).Vec3()
		dir := c.RandomUnitVector()
		dist := c.RandomFloat(r.distMin, r.distMax)
		offset := mgl64.Vec3{dir[0] * r.bias[0], dir[1] * r.bias[1], dir[2] * r.bias[2]}.Mul(dist)
		pos := center.Add(offset)

		vel := dir.Mul(c.RandomFloat(r.speedMin, r.speedMax))
		local := c.RandomVector(r.localMin, r.localMax)
		vel = vel.Add(m.Mul4x1(local.Vec4(0)).Vec3())

		xyz[i] = pos
		prev[i] = pos.Sub(vel.Mul(dt))
	}
}

// PositionOnHitBox places particles at random points inside the hit-boxes of
// the model attached to a control point and records which box and where, for
// lock_to_bone. Without hit-boxes particles start at the control point.
type PositionOnHitBox struct {
	cp int
}

func newPositionOnHitBox(p *particles.Params) (particles.Unit, error) {
	return &PositionOnHitBox{cp: p.ControlPoint("control_point")}, nil
}

func (r *PositionOnHitBox) Info() particles.Info {
	return particles.Info{
		Name:          "position_on_hitbox",
		Writes:        maskPosition | attribute.MaskOf(attribute.HitboxIndex, attribute.HitboxRelXYZ),
		ControlPoints: particles.CP(r.cp),
		UsesHitBoxes:  true,
	}
}

func (r *PositionOnHitBox) InitNewParticles(c *particles.Collection, start, n int, ctx any) {
	st := c.Store()
	xyz := st.VecsForWrite(attribute.XYZ)
	prev := st.VecsForWrite(attribute.PrevXYZ)
	idx := st.IntsForWrite(attribute.HitboxIndex)
	rel := st.VecsForWrite(attribute.HitboxRelXYZ)

	snap := c.HitBoxes(r.cp)
	boxes := snap.Current
	if !snap.CurrentValid {
		boxes = nil
	}
	for i := start; i < start+n; i++ {
		if len(boxes) == 0 {
			pos := c.GetControlPointAtTime(r.cp, c.CurrentTime())
			xyz[i], prev[i] = pos, pos
			idx[i] = -1
			continue
		}
		b := int(c.RandomFloat(0, float64(len(boxes))))
		if b >= len(boxes) {
			b = len(boxes) - 1
		}
		r3 := c.RandomVector(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1})
		pos := boxes[b].PointAt(r3)
		xyz[i], prev[i] = pos, pos
		idx[i] = int32(b)
		rel[i] = r3
	}
}

// VelocityRandom adds a random velocity: a random direction with speed in
// [speed_min, speed_max] plus a per-axis random vector in the control
// point's frame.
type VelocityRandom struct {
	cp                 int
	speedMin, speedMax float64
	localMin, localMax mgl64.Vec3
}

func newVelocityRandom(p *particles.Params) (particles.Unit, error) {
	sMin, sMax := p.OrderedRange("speed_min", "speed_max")
	return &VelocityRandom{
		cp:       p.ControlPoint("control_point"),
		speedMin: sMin,
		speedMax: sMax,
		localMin: p.Vector("local_min"),
		localMax: p.Vector("local_max"),
	}, nil
}

func (r *VelocityRandom) Info() particles.Info {
	return particles.Info{
		Name:          "velocity_random",
		Writes:        attribute.MaskOf(attribute.PrevXYZ),
		ControlPoints: particles.CP(r.cp),
	}
}

func (r *VelocityRandom) InitNewParticles(c *particles.Collection, start, n int, ctx any) {
	st := c.Store()
	prev := st.VecsForWrite(attribute.PrevXYZ)
	m := c.GetControlPointTransformAtTime(r.cp, c.CurrentTime())
	dt := c.Dt()
	for i := start; i < start+n; i++ {
		vel := c.RandomUnitVector().Mul(c.RandomFloat(r.speedMin, r.speedMax))
		local := c.RandomVector(r.localMin, r.localMax)
		vel = vel.Add(m.Mul4x1(local.Vec4(0)).Vec3())
		prev[i] = prev[i].Sub(vel.Mul(dt))
	}
}
