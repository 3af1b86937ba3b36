package operators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/lane"
	"github.com/gonewx/particleops/pkg/particles"
	"github.com/gonewx/particleops/pkg/utils"
)

// blend returns the batch at base with v written over it, scaled by the
// initial value when configured and blended with the old value by strength.
func (r remapRange) blend(out, initial []float64, base int, v lane.F4, strength float64) lane.F4 {
	if initial != nil {
		v = v.Mul(lane.LoadF4(initial, base))
	}
	old := lane.LoadF4(out, base)
	return old.Add(v.Sub(old).Scale(strength))
}

func (r remapRange) columns(st *attribute.Store) (out, initial []float64) {
	out = st.FloatsForWrite(r.field)
	if r.scaleInitial {
		initial = st.InitialFloats(r.field)
	}
	return out, initial
}

// DistanceToCP remaps each particle's distance to a control point into a
// scalar attribute. With los_check a blocked line of sight multiplies the
// result by los_failure_scale.
type DistanceToCP struct {
	remapRange
	cp           int
	losCheck     bool
	losMask      uint32
	losFailScale float64
}

func newDistanceToCP(p *particles.Params) (particles.Unit, error) {
	return &DistanceToCP{
		remapRange:   readRemap(p),
		cp:           p.ControlPoint("control_point"),
		losCheck:     p.Bool("los_check"),
		losMask:      uint32(p.Int("los_collision_mask")),
		losFailScale: p.Float("los_failure_scale"),
	}, nil
}

func (d *DistanceToCP) Info() particles.Info {
	return particles.Info{
		Name:          "distance_to_cp",
		Reads:         attribute.MaskOf(attribute.XYZ),
		Writes:        attribute.MaskOf(d.field),
		ReadsInitial:  d.initialMask(),
		ControlPoints: particles.CP(d.cp),
	}
}

func (d *DistanceToCP) Operate(c *particles.Collection, strength float64, ctx any) {
	st := c.Store()
	xyz := st.Vecs(attribute.XYZ)
	out, initial := d.columns(st)
	center := c.GetControlPointAtTime(d.cp, c.CurrentTime())
	origin := lane.SplatV(center)
	query := c.Services().Query
	n := st.Active()
	for b := 0; b < lane.Batches(n); b++ {
		base := b * lane.Width
		v := remapClamped(lane.LoadV4(xyz, base).Sub(origin).Len(), d.inMin, d.inMax, d.outMin, d.outMax)
		if d.losCheck {
			for j := 0; j < lane.Width && base+j < n; j++ {
				if tr := query.TraceLine(xyz[base+j], center, d.losMask, 0); tr.Hit {
					v[j] *= d.losFailScale
				}
			}
		}
		d.blend(out, initial, base, v, strength).Store(out, base)
	}
}

// DistanceBetweenCPs remaps the distance between two control points into a
// scalar attribute of every particle.
type DistanceBetweenCPs struct {
	remapRange
	startCP, endCP int
}

func newDistanceBetweenCPs(p *particles.Params) (particles.Unit, error) {
	return &DistanceBetweenCPs{
		remapRange: readRemap(p),
		startCP:    p.ControlPoint("start_cp"),
		endCP:      p.ControlPoint("end_cp"),
	}, nil
}

func (d *DistanceBetweenCPs) Info() particles.Info {
	return particles.Info{
		Name:          "distance_between_cps",
		Writes:        attribute.MaskOf(d.field),
		ReadsInitial:  d.initialMask(),
		ControlPoints: particles.CP(d.startCP, d.endCP),
	}
}

func (d *DistanceBetweenCPs) Operate(c *particles.Collection, strength float64, ctx any) {
	now := c.CurrentTime()
	dist := c.GetControlPointAtTime(d.endCP, now).Sub(c.GetControlPointAtTime(d.startCP, now)).Len()
	v := lane.Splat(utils.RemapValClamped(dist, d.inMin, d.inMax, d.outMin, d.outMax))
	st := c.Store()
	out, initial := d.columns(st)
	for b := 0; b < lane.Batches(st.Active()); b++ {
		base := b * lane.Width
		d.blend(out, initial, base, v, strength).Store(out, base)
	}
}

// RemapDotProduct remaps the dot product of two control point forward
// vectors into a scalar attribute. With use_particle_velocity the particle's
// direction of motion replaces the second vector.
type RemapDotProduct struct {
	remapRange
	cp1, cp2    int
	useVelocity bool
}

func newRemapDotProduct(p *particles.Params) (particles.Unit, error) {
	return &RemapDotProduct{
		remapRange:  readRemap(p),
		cp1:         p.ControlPoint("input_cp1"),
		cp2:         p.ControlPoint("input_cp2"),
		useVelocity: p.Bool("use_particle_velocity"),
	}, nil
}

func (d *RemapDotProduct) Info() particles.Info {
	info := particles.Info{
		Name:          "remap_dot_product_to_scalar",
		Writes:        attribute.MaskOf(d.field),
		ReadsInitial:  d.initialMask(),
		ControlPoints: particles.CP(d.cp1, d.cp2),
	}
	if d.useVelocity {
		info.Reads = maskPosition
	}
	return info
}

// minDirectionLength matches controlpoint.SafeNormalize.
const minDirectionLength = 1e-9

func forward(m mgl64.Mat4) mgl64.Vec3 {
	f, _ := controlpoint.SafeNormalize(m.Col(0).Vec3())
	return f
}

func (d *RemapDotProduct) Operate(c *particles.Collection, strength float64, ctx any) {
	now := c.CurrentTime()
	f1 := forward(c.GetControlPointTransformAtTime(d.cp1, now))
	f2 := forward(c.GetControlPointTransformAtTime(d.cp2, now))
	fixed := utils.RemapValClamped(f1.Dot(f2), d.inMin, d.inMax, d.outMin, d.outMax)

	st := c.Store()
	out, initial := d.columns(st)
	if !d.useVelocity {
		v := lane.Splat(fixed)
		for b := 0; b < lane.Batches(st.Active()); b++ {
			base := b * lane.Width
			d.blend(out, initial, base, v, strength).Store(out, base)
		}
		return
	}

	xyz := st.Vecs(attribute.XYZ)
	prev := st.Vecs(attribute.PrevXYZ)
	dir := lane.SplatV(f1)
	for b := 0; b < lane.Batches(st.Active()); b++ {
		base := b * lane.Width
		move := lane.LoadV4(xyz, base).Sub(lane.LoadV4(prev, base))
		speed := move.Len()
		// 静止粒子没有方向，保持原值
		moving := speed.Less(lane.Splat(minDirectionLength)).Not()
		if !moving.Any() {
			continue
		}
		v := remapClamped(dir.Dot(move).Div(speed), d.inMin, d.inMax, d.outMin, d.outMax)
		lane.Select(moving, d.blend(out, initial, base, v, strength), lane.LoadF4(out, base)).Store(out, base)
	}
}
