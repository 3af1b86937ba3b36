package operators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/particles"
)

// constraintTolerance is the smallest correction a constraint reports as
// work done; smaller corrections still apply but do not retrigger the solver.
const constraintTolerance = 1e-9

// ConstrainDistance keeps particles between min_distance and max_distance of
// a control point (plus offset).
type ConstrainDistance struct {
	cp               int
	minDist, maxDist float64
	offset           mgl64.Vec3
	globalCenter     bool
}

func newConstrainDistance(p *particles.Params) (particles.Unit, error) {
	lo, hi := p.OrderedRange("min_distance", "max_distance")
	return &ConstrainDistance{
		cp:           p.ControlPoint("control_point"),
		minDist:      lo,
		maxDist:      hi,
		offset:       p.Vector("offset"),
		globalCenter: p.Bool("global_center"),
	}, nil
}

func (k *ConstrainDistance) Info() particles.Info {
	return particles.Info{
		Name:          "constrain_distance",
		Writes:        attribute.MaskOf(attribute.XYZ),
		ControlPoints: particles.CP(k.cp),
	}
}

func (k *ConstrainDistance) IsFinal() bool { return false }

func (k *ConstrainDistance) EnforceConstraint(c *particles.Collection, start, end int, ctx any) bool {
	center := k.offset
	if !k.globalCenter {
		center = center.Add(c.GetControlPointAtTime(k.cp, c.CurrentTime()))
	}
	xyz := c.Store().VecsForWrite(attribute.XYZ)
	moved := false
	for i := start; i < end; i++ {
		d := xyz[i].Sub(center)
		dist := d.Len()
		dir, ok := controlpoint.SafeNormalize(d)
		if !ok {
			continue
		}
		target := dist
		if dist > k.maxDist {
			target = k.maxDist
		} else if dist < k.minDist {
			target = k.minDist
		}
		if target == dist {
			continue
		}
		xyz[i] = center.Add(dir.Mul(target))
		if diff := target - dist; diff > constraintTolerance || diff < -constraintTolerance {
			moved = true
		}
	}
	return moved
}

// PlanarConstraint keeps particles on the positive side of a plane.
type PlanarConstraint struct {
	cp           int
	point        mgl64.Vec3
	normal       mgl64.Vec3
	validNormal  bool
	globalOrigin bool
}

func newPlanarConstraint(p *particles.Params) (particles.Unit, error) {
	n, ok := controlpoint.SafeNormalize(p.Vector("normal"))
	return &PlanarConstraint{
		cp:           p.ControlPoint("control_point"),
		point:        p.Vector("point"),
		normal:       n,
		validNormal:  ok,
		globalOrigin: p.Bool("global_origin"),
	}, nil
}

func (k *PlanarConstraint) Info() particles.Info {
	return particles.Info{
		Name:          "planar_constraint",
		Writes:        attribute.MaskOf(attribute.XYZ),
		ControlPoints: particles.CP(k.cp),
	}
}

func (k *PlanarConstraint) IsFinal() bool { return false }

func (k *PlanarConstraint) EnforceConstraint(c *particles.Collection, start, end int, ctx any) bool {
	if !k.validNormal {
		return false
	}
	origin := k.point
	if !k.globalOrigin {
		origin = origin.Add(c.GetControlPointAtTime(k.cp, c.CurrentTime()))
	}
	xyz := c.Store().VecsForWrite(attribute.XYZ)
	moved := false
	for i := start; i < end; i++ {
		depth := xyz[i].Sub(origin).Dot(k.normal)
		if depth >= 0 {
			continue
		}
		xyz[i] = xyz[i].Sub(k.normal.Mul(depth))
		if depth < -constraintTolerance {
			moved = true
		}
	}
	return moved
}

// WorldTraceConstraint traces every particle's motion of this step against
// the world and bounces it off what it hits. It runs once, after the
// iterative constraints.
type WorldTraceConstraint struct {
	mask         uint32
	group        int
	bounce       float64
	slide        float64
	killOnHit    bool
	surfaceShift float64
}

func newWorldTraceConstraint(p *particles.Params) (particles.Unit, error) {
	return &WorldTraceConstraint{
		mask:         uint32(p.Int("collision_mask")),
		group:        p.Int("collision_group"),
		bounce:       p.Float("bounce"),
		slide:        p.Float("slide"),
		killOnHit:    p.Bool("kill_on_contact"),
		surfaceShift: p.Float("surface_offset"),
	}, nil
}

func (k *WorldTraceConstraint) Info() particles.Info {
	return particles.Info{
		Name:   "world_trace_constraint",
		Writes: maskPosition,
	}
}

func (k *WorldTraceConstraint) IsFinal() bool { return true }

func (k *WorldTraceConstraint) EnforceConstraint(c *particles.Collection, start, end int, ctx any) bool {
	query := c.Services().Query
	xyz := c.Store().VecsForWrite(attribute.XYZ)
	prev := c.Store().VecsForWrite(attribute.PrevXYZ)
	moved := false
	for i := start; i < end; i++ {
		tr := query.TraceLine(prev[i], xyz[i], k.mask, k.group)
		if !tr.Hit {
			continue
		}
		moved = true
		if k.killOnHit {
			c.KillParticle(i)
			continue
		}
		n := tr.Normal
		motion := xyz[i].Sub(prev[i])
		normal := n.Mul(motion.Dot(n))
		tangent := motion.Sub(normal).Mul(1 - k.slide)
		out := tangent.Sub(normal.Mul(k.bounce))

		pos := tr.EndPos.Add(n.Mul(k.surfaceShift))
		xyz[i] = pos
		prev[i] = pos.Sub(out)
	}
	return moved
}
