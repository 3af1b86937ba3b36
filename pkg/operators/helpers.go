// Package operators provides the built-in emitters, initializers, operators,
// force generators and constraints, and NewRegistry which registers them
// all under their definition names.
package operators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/lane"
	"github.com/gonewx/particleops/pkg/particles"
)

// ageTolerance is relative to the life duration. It absorbs float drift from
// summing step lengths, so a particle with life L dies on the step where the
// accumulated time reaches L and not one step early.
const ageTolerance = 1e-9

// Random stream offsets for RandomByID; each per-particle draw needs its own.
const (
	offsetCull = iota + 17
	offsetFadeIn
	offsetFadeOut
	offsetLockStart
	offsetLockEnd
	offsetSpin
)

var (
	maskAge      = attribute.MaskOf(attribute.CreationTime, attribute.LifeDuration)
	maskPosition = attribute.MaskOf(attribute.XYZ, attribute.PrevXYZ)
)

// normalizedAge returns (now-born)/life, or false when life <= 0.
func normalizedAge(now, born, life float64) (float64, bool) {
	if life <= 0 {
		return 0, false
	}
	return (now - born) / life, true
}

// ageBatch is normalizedAge for one batch. live marks the lanes with a
// positive life duration; the other lanes read age 0.
func ageBatch(now float64, born, life []float64, base int) (age lane.F4, live lane.Mask4) {
	l := lane.LoadF4(life, base)
	live = l.LessEq(lane.Splat(0)).Not()
	age = lane.Splat(now).Sub(lane.LoadF4(born, base)).Div(l)
	return age, live
}

// remapClamped is utils.RemapValClamped per lane.
func remapClamped(v lane.F4, a, b, c, d float64) lane.F4 {
	if a == b {
		return lane.Select(v.GreaterEq(lane.Splat(b)), lane.Splat(d), lane.Splat(c))
	}
	t := v.Sub(lane.Splat(a)).Div(lane.Splat(b-a)).Clamp(0, 1)
	return lane.Splat(c).Add(lane.Splat(d - c).Mul(t))
}

// killLanes flags the particles of the batch at base whose lane is set.
// KillParticle ignores padding slots.
func killLanes(c *particles.Collection, base int, dead lane.Mask4) {
	for j, d := range dead {
		if d {
			c.KillParticle(base + j)
		}
	}
}

// velocity is the implicit per-particle velocity.
func velocity(cur, prev mgl64.Vec3, dt float64) mgl64.Vec3 {
	if dt <= 0 {
		return mgl64.Vec3{}
	}
	return cur.Sub(prev).Mul(1 / dt)
}

// remapParams are the common input/output range parameters of the scalar
// remap operators.
func remapParams(defIn, defOut [2]string, field string) []particles.ParamDef {
	return []particles.ParamDef{
		{Name: "input_min", Type: particles.ParamFloat, Default: defIn[0]},
		{Name: "input_max", Type: particles.ParamFloat, Default: defIn[1]},
		{Name: "output_min", Type: particles.ParamFloat, Default: defOut[0]},
		{Name: "output_max", Type: particles.ParamFloat, Default: defOut[1]},
		{Name: "output_field", Type: particles.ParamAttribute, Default: field, Help: "scalar attribute to write"},
		{Name: "scale_initial", Type: particles.ParamBool, Default: "0", Help: "multiply by the particle's initial value"},
	}
}

type remapRange struct {
	inMin, inMax, outMin, outMax float64
	field                        attribute.Kind
	scaleInitial                 bool
}

func readRemap(p *particles.Params) remapRange {
	return remapRange{
		inMin:        p.Float("input_min"),
		inMax:        p.Float("input_max"),
		outMin:       p.Float("output_min"),
		outMax:       p.Float("output_max"),
		field:        p.FloatAttribute("output_field"),
		scaleInitial: p.Bool("scale_initial"),
	}
}

func (r remapRange) initialMask() attribute.Mask {
	if r.scaleInitial {
		return attribute.MaskOf(r.field)
	}
	return 0
}
