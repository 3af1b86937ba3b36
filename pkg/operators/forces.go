package operators

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/particles"
)

// RandomForce adds a fresh random acceleration every step.
type RandomForce struct {
	min, max mgl64.Vec3
}

func newRandomForce(p *particles.Params) (particles.Unit, error) {
	return &RandomForce{min: p.Vector("min_force"), max: p.Vector("max_force")}, nil
}

func (f *RandomForce) Info() particles.Info {
	return particles.Info{Name: "random_force"}
}

func (f *RandomForce) AddForces(c *particles.Collection, accum []mgl64.Vec3, strength float64, ctx any) {
	for i := 0; i < c.ActiveCount(); i++ {
		accum[i] = accum[i].Add(c.RandomVector(f.min, f.max).Mul(strength))
	}
}

// AttractToCP pulls particles towards a control point with an acceleration
// of amount / distance^falloff_power.
type AttractToCP struct {
	cp     int
	amount float64
	power  float64
}

func newAttractToCP(p *particles.Params) (particles.Unit, error) {
	return &AttractToCP{
		cp:     p.ControlPoint("control_point"),
		amount: p.Float("amount"),
		power:  p.Float("falloff_power"),
	}, nil
}

func (f *AttractToCP) Info() particles.Info {
	return particles.Info{
		Name:          "attract_to_cp",
		Reads:         attribute.MaskOf(attribute.XYZ),
		ControlPoints: particles.CP(f.cp),
	}
}

func (f *AttractToCP) AddForces(c *particles.Collection, accum []mgl64.Vec3, strength float64, ctx any) {
	center := c.GetControlPointAtTime(f.cp, c.CurrentTime())
	xyz := c.Store().Vecs(attribute.XYZ)
	for i := 0; i < c.ActiveCount(); i++ {
		d := center.Sub(xyz[i])
		dist := d.Len()
		dir, ok := controlpoint.SafeNormalize(d)
		if !ok {
			continue
		}
		mag := f.amount * strength
		if f.power != 0 {
			mag /= math.Pow(math.Max(dist, 1), f.power)
		}
		accum[i] = accum[i].Add(dir.Mul(mag))
	}
}

// TwistAroundAxis accelerates particles tangentially around an axis through
// a control point.
type TwistAroundAxis struct {
	cp         int
	amount     float64
	axis       mgl64.Vec3
	localSpace bool
}

func newTwistAroundAxis(p *particles.Params) (particles.Unit, error) {
	axis, ok := controlpoint.SafeNormalize(p.Vector("axis"))
	if !ok {
		axis = mgl64.Vec3{0, 0, 1}
	}
	return &TwistAroundAxis{
		cp:         p.ControlPoint("control_point"),
		amount:     p.Float("amount"),
		axis:       axis,
		localSpace: p.Bool("local_space"),
	}, nil
}

func (f *TwistAroundAxis) Info() particles.Info {
	return particles.Info{
		Name:          "twist_around_axis",
		Reads:         attribute.MaskOf(attribute.XYZ),
		ControlPoints: particles.CP(f.cp),
	}
}

func (f *TwistAroundAxis) AddForces(c *particles.Collection, accum []mgl64.Vec3, strength float64, ctx any) {
	m := c.GetControlPointTransformAtTime(f.cp, c.CurrentTime())
	center := m.Col(3).Vec3()
	axis := f.axis
	if f.localSpace {
		if a, ok := controlpoint.SafeNormalize(m.Mul4x1(axis.Vec4(0)).Vec3()); ok {
			axis = a
		}
	}
	xyz := c.Store().Vecs(attribute.XYZ)
	for i := 0; i < c.ActiveCount(); i++ {
		tangent, ok := controlpoint.SafeNormalize(axis.Cross(xyz[i].Sub(center)))
		if !ok {
			continue
		}
		accum[i] = accum[i].Add(tangent.Mul(f.amount * strength))
	}
}
