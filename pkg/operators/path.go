package operators

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/particles"
	"github.com/gonewx/particleops/pkg/utils"
)

// MaintainSequentialPath pulls particles onto a path through the control
// points start_cp..end_cp. Each particle owns a fixed slot on the path by
// id, particles_to_map_full_path slots spanning it. bounce walks the slots
// back and forth and takes precedence over loop. Two control points form
// a quadratic curve bent by bulge at mid_point; more control points form a
// chain of quadratic segments that passes through the first and the last.
type MaintainSequentialPath struct {
	startCP, endCP int
	slots          float64
	loop           bool
	bounce         bool
	bulge          float64
	midPoint       float64
	cohesion       float64
	tolerance      float64
}

func newMaintainSequentialPath(p *particles.Params) (particles.Unit, error) {
	start, end := p.ControlPoint("start_cp"), p.ControlPoint("end_cp")
	if end < start {
		start, end = end, start
	}
	return &MaintainSequentialPath{
		startCP:   start,
		endCP:     end,
		slots:     math.Max(p.Float("particles_to_map_full_path"), 1),
		loop:      p.Bool("loop"),
		bounce:    p.Bool("bounce"),
		bulge:     p.Float("bulge"),
		midPoint:  utils.Clamp01(p.Float("mid_point")),
		cohesion:  utils.Clamp01(p.Float("cohesion_strength")),
		tolerance: math.Max(p.Float("tolerance"), 0),
	}, nil
}

func (m *MaintainSequentialPath) Info() particles.Info {
	ids := make([]int, 0, m.endCP-m.startCP+1)
	for cp := m.startCP; cp <= m.endCP; cp++ {
		ids = append(ids, cp)
	}
	return particles.Info{
		Name:          "maintain_sequential_path",
		Reads:         attribute.MaskOf(attribute.ParticleID),
		Writes:        maskPosition,
		ControlPoints: particles.CP(ids...),
	}
}

// pathParam maps a particle id to its slot on the path in [0, 1]. With
// bounce the slots run 0..n-1 and back down again instead of wrapping.
func (m *MaintainSequentialPath) pathParam(id int32) float64 {
	n := int64(m.slots)
	if n == 1 {
		return 0
	}
	k := int64(id)
	switch {
	case m.bounce:
		period := 2 * (n - 1)
		k %= period
		if k > n-1 {
			k = period - k
		}
		return float64(k) / float64(n-1)
	case m.loop:
		return float64(k%n) / float64(n)
	default:
		return float64(k%n) / float64(n-1)
	}
}

func lerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func quadBezier(p0, p1, p2 mgl64.Vec3, t float64) mgl64.Vec3 {
	return lerpVec(lerpVec(p0, p1, t), lerpVec(p1, p2, t), t)
}

// pointAt evaluates the path at t in [0, 1].
func (m *MaintainSequentialPath) pointAt(pts []mgl64.Vec3, t float64) mgl64.Vec3 {
	last := len(pts) - 1
	if last == 0 {
		return pts[0]
	}
	if last == 1 {
		return quadBezier(pts[0], m.bulgeControl(pts[0], pts[1]), pts[1], t)
	}
	segs := last - 1
	x := utils.Clamp01(t) * float64(segs)
	j := int(x)
	if j >= segs {
		j = segs - 1
	}
	u := x - float64(j)
	// 第 j 段以 pts[j+1] 为控制点，端点取相邻中点，首尾段落在真实控制点上
	from := lerpVec(pts[j], pts[j+1], 0.5)
	if j == 0 {
		from = pts[0]
	}
	to := lerpVec(pts[j+1], pts[j+2], 0.5)
	if j == segs-1 {
		to = pts[last]
	}
	return quadBezier(from, pts[j+1], to, u)
}

func (m *MaintainSequentialPath) bulgeControl(a, b mgl64.Vec3) mgl64.Vec3 {
	mid := lerpVec(a, b, m.midPoint)
	if m.bulge == 0 {
		return mid
	}
	dir := b.Sub(a)
	perp, ok := controlpoint.SafeNormalize(dir.Cross(mgl64.Vec3{0, 0, 1}))
	if !ok {
		perp, ok = controlpoint.SafeNormalize(dir.Cross(mgl64.Vec3{0, 1, 0}))
		if !ok {
			return mid
		}
	}
	return mid.Add(perp.Mul(m.bulge * dir.Len()))
}

func (m *MaintainSequentialPath) Operate(c *particles.Collection, strength float64, ctx any) {
	now := c.CurrentTime()
	pts := make([]mgl64.Vec3, 0, m.endCP-m.startCP+1)
	for cp := m.startCP; cp <= m.endCP; cp++ {
		pts = append(pts, c.GetControlPointAtTime(cp, now))
	}
	if m.loop && len(pts) > 2 {
		pts = append(pts, pts[0])
	}

	st := c.Store()
	ids := st.Ints(attribute.ParticleID)
	xyz := st.VecsForWrite(attribute.XYZ)
	prev := st.VecsForWrite(attribute.PrevXYZ)
	w := m.cohesion * strength
	for i := 0; i < st.Active(); i++ {
		target := m.pointAt(pts, m.pathParam(ids[i]))
		off := target.Sub(xyz[i])
		if off.Len() <= m.tolerance {
			continue
		}
		move := off.Mul(w)
		xyz[i] = xyz[i].Add(move)
		prev[i] = prev[i].Add(move)
	}
}
