package operators

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/particles"
	"github.com/gonewx/particleops/pkg/utils"
)

// maxCPLights is the number of light slots of control_point_light.
const maxCPLights = 4

type cpLight struct {
	cp        int
	color     mgl64.Vec3
	spot      bool
	direction mgl64.Vec3
	offset    mgl64.Vec3
	cosInner  float64
	cosOuter  float64
	fifty     float64
	zero      float64
	dynamic   bool
	ambient   bool
}

// ControlPointLight tints particles by up to four point or spot lights
// attached to control points, plus the ambient light of the query service.
// Static lights are sampled once, on the first step after (re)start. With
// use_normal each particle's normal faces the light's control point. The
// result is clamped to [0, 1] unless a clamp to the initial tint is set.
type ControlPointLight struct {
	lights      []cpLight
	useNormal   bool
	halfLambert bool
	clampMin    bool
	clampMax    bool
	scale       float64
}

type lightContext struct {
	latched   bool
	positions [maxCPLights]mgl64.Vec3
	origins   [maxCPLights]mgl64.Vec3
	dirs      [maxCPLights]mgl64.Vec3
	colors    [maxCPLights]mgl64.Vec3
}

func lightParam(n int, field string) string {
	return fmt.Sprintf("light_%d_%s", n, field)
}

// lightParamDefs is the parameter schema of control_point_light.
func lightParamDefs() []particles.ParamDef {
	defs := []particles.ParamDef{
		{Name: "use_normal", Type: particles.ParamBool, Default: "0", Help: "shade by the direction from each light's control point"},
		{Name: "use_half_lambert", Type: particles.ParamBool, Default: "1"},
		{Name: "clamp_min_to_initial", Type: particles.ParamBool, Default: "0"},
		{Name: "clamp_max_to_initial", Type: particles.ParamBool, Default: "0"},
		{Name: "scale", Type: particles.ParamFloat, Default: "1"},
	}
	for n := 1; n <= maxCPLights; n++ {
		enabled := "0"
		if n == 1 {
			enabled = "1"
		}
		defs = append(defs,
			particles.ParamDef{Name: lightParam(n, "enabled"), Type: particles.ParamBool, Default: enabled},
			particles.ParamDef{Name: lightParam(n, "control_point"), Type: particles.ParamControlPoint, Default: "0"},
			particles.ParamDef{Name: lightParam(n, "color"), Type: particles.ParamColor, Default: "255 255 255"},
			particles.ParamDef{Name: lightParam(n, "type"), Type: particles.ParamString, Default: "point", Help: "point or spot"},
			particles.ParamDef{Name: lightParam(n, "direction"), Type: particles.ParamVector, Default: "1 0 0"},
			particles.ParamDef{Name: lightParam(n, "offset"), Type: particles.ParamVector, Default: "0 0 0"},
			particles.ParamDef{Name: lightParam(n, "spot_inner_cone"), Type: particles.ParamFloat, Default: "30", Help: "degrees"},
			particles.ParamDef{Name: lightParam(n, "spot_outer_cone"), Type: particles.ParamFloat, Default: "45", Help: "degrees"},
			particles.ParamDef{Name: lightParam(n, "fifty_distance"), Type: particles.ParamFloat, Default: "100"},
			particles.ParamDef{Name: lightParam(n, "zero_distance"), Type: particles.ParamFloat, Default: "200"},
			particles.ParamDef{Name: lightParam(n, "dynamic"), Type: particles.ParamBool, Default: "0"},
			particles.ParamDef{Name: lightParam(n, "ambient_color"), Type: particles.ParamBool, Default: "0", Help: "take the color from the ambient light at the light"},
		)
	}
	return defs
}

func newControlPointLight(p *particles.Params) (particles.Unit, error) {
	l := &ControlPointLight{
		useNormal:   p.Bool("use_normal"),
		halfLambert: p.Bool("use_half_lambert"),
		clampMin:    p.Bool("clamp_min_to_initial"),
		clampMax:    p.Bool("clamp_max_to_initial"),
		scale:       p.Float("scale"),
	}
	for n := 1; n <= maxCPLights; n++ {
		if !p.Bool(lightParam(n, "enabled")) {
			continue
		}
		kind := p.String(lightParam(n, "type"))
		if kind != "point" && kind != "spot" {
			return nil, fmt.Errorf("%s: unknown light type %q", lightParam(n, "type"), kind)
		}
		dir, ok := controlpoint.SafeNormalize(p.Vector(lightParam(n, "direction")))
		if !ok {
			dir = mgl64.Vec3{1, 0, 0}
		}
		inner, outer := p.OrderedRange(lightParam(n, "spot_inner_cone"), lightParam(n, "spot_outer_cone"))
		fifty := math.Max(p.Float(lightParam(n, "fifty_distance")), 1e-3)
		zero := p.Float(lightParam(n, "zero_distance"))
		if zero < fifty {
			zero = fifty
		}
		l.lights = append(l.lights, cpLight{
			cp:        p.ControlPoint(lightParam(n, "control_point")),
			color:     p.Color(lightParam(n, "color")),
			spot:      kind == "spot",
			direction: dir,
			offset:    p.Vector(lightParam(n, "offset")),
			cosInner:  math.Cos(mgl64.DegToRad(inner)),
			cosOuter:  math.Cos(mgl64.DegToRad(outer)),
			fifty:     fifty,
			zero:      zero,
			dynamic:   p.Bool(lightParam(n, "dynamic")),
			ambient:   p.Bool(lightParam(n, "ambient_color")),
		})
	}
	return l, nil
}

func (l *ControlPointLight) Info() particles.Info {
	cps := make([]int, 0, len(l.lights))
	for _, lt := range l.lights {
		cps = append(cps, lt.cp)
	}
	return particles.Info{
		Name:          "control_point_light",
		Reads:         attribute.MaskOf(attribute.XYZ),
		Writes:        attribute.MaskOf(attribute.Tint),
		ReadsInitial:  attribute.MaskOf(attribute.Tint),
		ControlPoints: particles.CP(cps...),
	}
}

func (l *ControlPointLight) NewContext() any { return &lightContext{} }

func (l *ControlPointLight) InitializeContextData(c *particles.Collection, ctx any) {
	*ctx.(*lightContext) = lightContext{}
}

// sample refreshes the light positions and directions: dynamic lights every
// step, static ones only the first time.
func (l *ControlPointLight) sample(c *particles.Collection, lc *lightContext) {
	now := c.CurrentTime()
	query := c.Services().Query
	for k, lt := range l.lights {
		if lc.latched && !lt.dynamic {
			continue
		}
		m := c.GetControlPointTransformAtTime(lt.cp, now)
		lc.origins[k] = m.Col(3).Vec3()
		lc.positions[k] = mgl64.TransformCoordinate(lt.offset, m)
		lc.colors[k] = lt.color
		if lt.ambient {
			lc.colors[k] = query.GetAmbientLightingAtPoint(lc.positions[k])
		}
		if d, ok := controlpoint.SafeNormalize(m.Mul4x1(lt.direction.Vec4(0)).Vec3()); ok {
			lc.dirs[k] = d
		} else {
			lc.dirs[k] = lt.direction
		}
	}
	lc.latched = true
}

// attenuation is 1/(1+(d/fifty)^2), reaching 0.5 at fifty_distance, faded
// linearly to zero between fifty_distance and zero_distance.
func (lt *cpLight) attenuation(dist float64) float64 {
	if dist >= lt.zero && lt.zero > lt.fifty {
		return 0
	}
	r := dist / lt.fifty
	a := 1 / (1 + r*r)
	if dist > lt.fifty && lt.zero > lt.fifty {
		a *= 1 - utils.RemapValClamped(dist, lt.fifty, lt.zero, 0, 1)
	}
	return a
}

func (l *ControlPointLight) lambert(n, toLight mgl64.Vec3) float64 {
	d := n.Dot(toLight)
	if l.halfLambert {
		h := d*0.5 + 0.5
		return h * h
	}
	return math.Max(d, 0)
}

func (l *ControlPointLight) Operate(c *particles.Collection, strength float64, ctx any) {
	lc := ctx.(*lightContext)
	l.sample(c, lc)

	st := c.Store()
	xyz := st.Vecs(attribute.XYZ)
	initial := st.InitialVecs(attribute.Tint)
	tint := st.VecsForWrite(attribute.Tint)
	query := c.Services().Query

	for i := 0; i < st.Active(); i++ {
		p := xyz[i]
		light := query.GetAmbientLightingAtPoint(p)
		for k := range l.lights {
			lt := &l.lights[k]
			toLight := lc.positions[k].Sub(p)
			dist := toLight.Len()
			a := lt.attenuation(dist)
			if a <= 0 {
				continue
			}
			dir, ok := controlpoint.SafeNormalize(toLight)
			if lt.spot && ok {
				cos := -dir.Dot(lc.dirs[k])
				a *= utils.RemapValClamped(cos, lt.cosOuter, lt.cosInner, 0, 1)
			}
			if l.useNormal && ok {
				if normal, hasNormal := controlpoint.SafeNormalize(lc.origins[k].Sub(p)); hasNormal {
					a *= l.lambert(normal, dir)
				}
			}
			light = light.Add(lc.colors[k].Mul(a))
		}

		out := mgl64.Vec3{}
		for ch := 0; ch < 3; ch++ {
			v := initial[i][ch] * light[ch] * l.scale
			if !l.clampMin && !l.clampMax {
				v = utils.Clamp01(v)
			}
			if l.clampMin {
				v = math.Max(v, initial[i][ch])
			}
			if l.clampMax {
				v = math.Min(v, initial[i][ch])
			}
			out[ch] = utils.Lerp(initial[i][ch], v, strength)
		}
		tint[i] = out
	}
}
