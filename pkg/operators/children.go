package operators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/particles"
)

// SetChildControlPoints publishes particle positions as control points of
// every child collection: particle first_particle+k drives child control
// point first_control_point+k. With set_orientation the control point faces
// along the particle's motion.
type SetChildControlPoints struct {
	firstCP       int
	numCPs        int
	firstParticle int
	orient        bool
}

func newSetChildControlPoints(p *particles.Params) (particles.Unit, error) {
	first := p.ControlPoint("first_control_point")
	n := p.Int("num_control_points")
	if n < 0 {
		n = 0
	}
	if first+n > controlpoint.MaxControlPoints {
		n = controlpoint.MaxControlPoints - first
	}
	fp := p.Int("first_particle")
	if fp < 0 {
		fp = 0
	}
	return &SetChildControlPoints{
		firstCP:       first,
		numCPs:        n,
		firstParticle: fp,
		orient:        p.Bool("set_orientation"),
	}, nil
}

func (s *SetChildControlPoints) Info() particles.Info {
	info := particles.Info{
		Name:  "set_child_control_points",
		Reads: attribute.MaskOf(attribute.XYZ),
	}
	if s.orient {
		info.Reads |= attribute.MaskOf(attribute.PrevXYZ)
	}
	return info
}

func (s *SetChildControlPoints) Operate(c *particles.Collection, strength float64, ctx any) {
	children := c.Children()
	if len(children) == 0 {
		return
	}
	st := c.Store()
	xyz := st.Vecs(attribute.XYZ)
	var prev []mgl64.Vec3
	if s.orient {
		prev = st.Vecs(attribute.PrevXYZ)
	}
	for k := 0; k < s.numCPs; k++ {
		i := s.firstParticle + k
		if i >= st.Active() {
			break
		}
		cp := s.firstCP + k
		for _, ch := range children {
			ch.SetControlPoint(cp, xyz[i])
			if prev == nil {
				continue
			}
			fwd, ok := controlpoint.SafeNormalize(xyz[i].Sub(prev[i]))
			if !ok {
				continue
			}
			right, up := basisFromForward(fwd)
			ch.SetControlPointOrientation(cp, fwd, right, up)
		}
	}
}

// basisFromForward completes an orthonormal right/up pair for fwd, keeping
// up as close to +Z as possible.
func basisFromForward(fwd mgl64.Vec3) (right, up mgl64.Vec3) {
	worldUp := mgl64.Vec3{0, 0, 1}
	if r, ok := controlpoint.SafeNormalize(fwd.Cross(worldUp)); ok {
		right = r
	} else {
		right = mgl64.Vec3{0, -1, 0}
	}
	up = right.Cross(fwd)
	return right, up
}
