package operators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/lane"
	"github.com/gonewx/particleops/pkg/particles"
)

// LifespanDecay kills particles whose age reached their life duration, and
// particles with a non-positive life duration immediately.
type LifespanDecay struct{}

func newLifespanDecay(p *particles.Params) (particles.Unit, error) {
	return LifespanDecay{}, nil
}

func (LifespanDecay) Info() particles.Info {
	return particles.Info{Name: "lifespan_decay", Reads: maskAge}
}

func (LifespanDecay) Operate(c *particles.Collection, strength float64, ctx any) {
	st := c.Store()
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	now := lane.Splat(c.CurrentTime())
	for b := 0; b < lane.Batches(st.Active()); b++ {
		base := b * lane.Width
		l := lane.LoadF4(life, base)
		age := now.Sub(lane.LoadF4(born, base))
		dead := l.LessEq(lane.Splat(0)).Or(age.GreaterEq(l.Sub(l.Scale(ageTolerance))))
		killLanes(c, base, dead)
	}
}

// VelocityDecay kills particles slower than min_velocity.
type VelocityDecay struct {
	minVelocity float64
}

func newVelocityDecay(p *particles.Params) (particles.Unit, error) {
	return &VelocityDecay{minVelocity: p.Float("min_velocity")}, nil
}

func (d *VelocityDecay) Info() particles.Info {
	return particles.Info{Name: "velocity_decay", Reads: maskPosition}
}

func (d *VelocityDecay) Operate(c *particles.Collection, strength float64, ctx any) {
	dt := c.Dt()
	if dt <= 0 {
		return
	}
	st := c.Store()
	xyz := st.Vecs(attribute.XYZ)
	prev := st.Vecs(attribute.PrevXYZ)
	limit := lane.Splat(d.minVelocity * dt)
	for b := 0; b < lane.Batches(st.Active()); b++ {
		base := b * lane.Width
		moved := lane.LoadV4(xyz, base).Sub(lane.LoadV4(prev, base)).Len()
		killLanes(c, base, moved.Less(limit))
	}
}

// RandomCull kills a fixed share of particles, chosen by id, while their
// normalized age is inside [cull_start, cull_end]. The share is scaled by
// the service detail scale.
type RandomCull struct {
	percentage float64
	start, end float64
	exponent   float64
}

func newRandomCull(p *particles.Params) (particles.Unit, error) {
	lo, hi := p.OrderedRange("cull_start", "cull_end")
	return &RandomCull{
		percentage: p.Float("cull_percentage"),
		start:      lo,
		end:        hi,
		exponent:   p.Float("cull_exponent"),
	}, nil
}

func (r *RandomCull) Info() particles.Info {
	return particles.Info{
		Name:  "random_cull",
		Reads: maskAge | attribute.MaskOf(attribute.ParticleID),
	}
}

func (r *RandomCull) Operate(c *particles.Collection, strength float64, ctx any) {
	threshold := r.percentage * c.Services().DetailScale * strength
	if threshold <= 0 {
		return
	}
	st := c.Store()
	ids := st.Ints(attribute.ParticleID)
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	now := c.CurrentTime()
	for i := 0; i < st.Active(); i++ {
		age, ok := normalizedAge(now, born[i], life[i])
		if !ok || age < r.start || age > r.end {
			continue
		}
		if particles.RandomFloatExp(ids[i], offsetCull, 0, 1, r.exponent) < threshold {
			c.KillParticle(i)
		}
	}
}

// PlaneCull kills particles behind a plane through a control point. The
// normal points to the side that survives.
type PlaneCull struct {
	cp         int
	offset     float64
	normal     mgl64.Vec3
	valid      bool
	localSpace bool
}

func newPlaneCull(p *particles.Params) (particles.Unit, error) {
	n, ok := controlpoint.SafeNormalize(p.Vector("normal"))
	return &PlaneCull{
		cp:         p.ControlPoint("control_point"),
		offset:     p.Float("offset"),
		normal:     n,
		valid:      ok,
		localSpace: p.Bool("local_space"),
	}, nil
}

func (pc *PlaneCull) Info() particles.Info {
	return particles.Info{
		Name:          "plane_cull",
		Reads:         attribute.MaskOf(attribute.XYZ),
		ControlPoints: particles.CP(pc.cp),
	}
}

func (pc *PlaneCull) Operate(c *particles.Collection, strength float64, ctx any) {
	if !pc.valid {
		return
	}
	m := c.GetControlPointTransformAtTime(pc.cp, c.CurrentTime())
	normal := pc.normal
	if pc.localSpace {
		if n, ok := controlpoint.SafeNormalize(m.Mul4x1(normal.Vec4(0)).Vec3()); ok {
			normal = n
		}
	}
	origin := m.Col(3).Vec3().Add(normal.Mul(pc.offset))
	st := c.Store()
	xyz := st.Vecs(attribute.XYZ)
	for i := 0; i < st.Active(); i++ {
		if xyz[i].Sub(origin).Dot(normal) < 0 {
			c.KillParticle(i)
		}
	}
}

// ModelCull kills particles inside (or outside) the model attached to a
// control point, as answered by the query service.
type ModelCull struct {
	cp          int
	boundsOnly  bool
	cullOutside bool
}

func newModelCull(p *particles.Params) (particles.Unit, error) {
	return &ModelCull{
		cp:          p.ControlPoint("control_point"),
		boundsOnly:  p.Bool("bounding_box_only"),
		cullOutside: p.Bool("cull_outside"),
	}, nil
}

func (mc *ModelCull) Info() particles.Info {
	return particles.Info{
		Name:          "model_cull",
		Reads:         attribute.MaskOf(attribute.XYZ),
		ControlPoints: particles.CP(mc.cp),
		UsesHitBoxes:  true,
	}
}

func (mc *ModelCull) Operate(c *particles.Collection, strength float64, ctx any) {
	query := c.Services().Query
	st := c.Store()
	xyz := st.Vecs(attribute.XYZ)
	for i := 0; i < st.Active(); i++ {
		inside := query.IsPointInsideControllingObjectHitBox(c, mc.cp, xyz[i], mc.boundsOnly)
		if inside != mc.cullOutside {
			c.KillParticle(i)
		}
	}
}
