package operators

import (
	"math"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/particles"
	"github.com/gonewx/particleops/pkg/utils"
)

// EmitFromParentParticles runs in a child collection and emits children
// along the path of every parent particle. Each parent keeps a running
// count of the children that should exist by now; the integer difference to
// the children already emitted is emitted this step.
type EmitFromParentParticles struct {
	rate            float64
	scaleBySpeed    bool
	speedScale      float64
	inheritVelocity float64
}

type parentEmission struct {
	counter float64
	emitted int
	seen    uint64
}

type emitFromParentContext struct {
	parents map[int32]*parentEmission
	step    uint64
}

func newEmitFromParentParticles(p *particles.Params) (particles.Unit, error) {
	return &EmitFromParentParticles{
		rate:            math.Max(0, p.Float("emission_rate")),
		scaleBySpeed:    p.Bool("scale_by_speed"),
		speedScale:      p.Float("speed_scale"),
		inheritVelocity: p.Float("inherit_velocity"),
	}, nil
}

func (e *EmitFromParentParticles) Info() particles.Info {
	return particles.Info{
		Name:   "emit_from_parent_particles",
		Writes: attribute.MaskOf(attribute.XYZ, attribute.PrevXYZ, attribute.CreationTime),
	}
}

func (e *EmitFromParentParticles) NewContext() any {
	return &emitFromParentContext{parents: make(map[int32]*parentEmission)}
}

func (e *EmitFromParentParticles) InitializeContextData(c *particles.Collection, ctx any) {
	st := ctx.(*emitFromParentContext)
	clear(st.parents)
	st.step = 0
}

func (e *EmitFromParentParticles) Operate(c *particles.Collection, strength float64, ctx any) {
	parent := c.Parent()
	if parent == nil {
		return
	}
	st := ctx.(*emitFromParentContext)
	st.step++

	ps := parent.Store()
	ids := ps.Ints(attribute.ParticleID)
	born := ps.Floats(attribute.CreationTime)
	pcur := ps.Vecs(attribute.XYZ)
	pprev := ps.Vecs(attribute.PrevXYZ)

	now := c.CurrentTime()
	dt := c.Dt()
	stepStart := now - dt

	for i := 0; i < ps.Active(); i++ {
		interval := math.Min(dt, now-born[i])
		if interval <= 0 {
			continue
		}
		pe := st.parents[ids[i]]
		if pe == nil {
			pe = &parentEmission{}
			st.parents[ids[i]] = pe
		}
		pe.seen = st.step

		vel := velocity(pcur[i], pprev[i], dt)
		rate := e.rate * strength
		if e.scaleBySpeed {
			rate *= vel.Len() * e.speedScale
		}
		pe.counter += rate * interval
		total := int(math.Floor(pe.counter + emitEpsilon))
		n := total - pe.emitted
		pe.emitted = total
		if n <= 0 {
			continue
		}

		start, added := c.AddParticles(n)
		if added == 0 {
			continue
		}
		xyz := c.Store().VecsForWrite(attribute.XYZ)
		prev := c.Store().VecsForWrite(attribute.PrevXYZ)
		cborn := c.Store().FloatsForWrite(attribute.CreationTime)
		offset := vel.Mul(e.inheritVelocity * dt)
		from := now - interval
		for k := 0; k < added; k++ {
			t := from + interval*float64(k+1)/float64(n)
			// 父粒子在本步内按线性运动插值
			f := utils.Clamp01((t - stepStart) / dt)
			pos := pprev[i].Add(pcur[i].Sub(pprev[i]).Mul(f))
			xyz[start+k] = pos
			prev[start+k] = pos.Sub(offset)
			cborn[start+k] = t
		}
	}

	for id, pe := range st.parents {
		if pe.seen != st.step {
			delete(st.parents, id)
		}
	}
}

func (e *EmitFromParentParticles) MayCreateMoreParticles(c *particles.Collection, ctx any) bool {
	parent := c.Parent()
	if parent == nil || e.rate <= 0 {
		return false
	}
	return parent.ActiveCount() > 0 || parent.MayEmit()
}
