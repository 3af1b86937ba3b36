package operators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/lane"
	"github.com/gonewx/particleops/pkg/particles"
	"github.com/gonewx/particleops/pkg/utils"
)

// AlphaFade moves alpha from its initial value to target across the
// normalized age window [start_time, end_time]. Particles outside the window
// are not touched.
type AlphaFade struct {
	start, end float64
	target     float64
	ease       bool
}

func newAlphaFade(p *particles.Params) (particles.Unit, error) {
	lo, hi := p.OrderedRange("start_time", "end_time")
	return &AlphaFade{start: lo, end: hi, target: p.Float("target"), ease: p.Bool("ease_in_out")}, nil
}

func (f *AlphaFade) Info() particles.Info {
	return particles.Info{
		Name:         "alpha_fade",
		Reads:        maskAge,
		Writes:       attribute.MaskOf(attribute.Alpha),
		ReadsInitial: attribute.MaskOf(attribute.Alpha),
	}
}

func (f *AlphaFade) Operate(c *particles.Collection, strength float64, ctx any) {
	st := c.Store()
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	initial := st.InitialFloats(attribute.Alpha)
	alpha := st.FloatsForWrite(attribute.Alpha)
	now := c.CurrentTime()
	for b := 0; b < lane.Batches(st.Active()); b++ {
		base := b * lane.Width
		age, live := ageBatch(now, born, life, base)
		in := live.And(age.GreaterEq(lane.Splat(f.start))).And(age.LessEq(lane.Splat(f.end)))
		if !in.Any() {
			continue
		}
		t := remapClamped(age, f.start, f.end, 0, 1)
		if f.ease {
			t = t.Map(utils.SimpleSpline)
		}
		orig := lane.LoadF4(initial, base)
		faded := orig.Add(lane.Splat(f.target).Sub(orig).Mul(t.Scale(strength)))
		lane.Select(in, faded, lane.LoadF4(alpha, base)).Store(alpha, base)
	}
}

// FadeInRandom scales alpha up from 0 over a per-particle random fade time,
// either in seconds or as a fraction of life. The step that ends the fade
// restores the initial alpha.
type FadeInRandom struct {
	min, max     float64
	exponent     float64
	proportional bool
}

func newFadeInRandom(p *particles.Params) (particles.Unit, error) {
	lo, hi := p.OrderedRange("fade_in_time_min", "fade_in_time_max")
	return &FadeInRandom{min: lo, max: hi, exponent: p.Float("fade_in_time_exp"), proportional: p.Bool("proportional")}, nil
}

func (f *FadeInRandom) Info() particles.Info {
	return particles.Info{
		Name:         "fade_in_random",
		Reads:        maskAge | attribute.MaskOf(attribute.ParticleID),
		Writes:       attribute.MaskOf(attribute.Alpha),
		ReadsInitial: attribute.MaskOf(attribute.Alpha),
	}
}

func (f *FadeInRandom) Operate(c *particles.Collection, strength float64, ctx any) {
	st := c.Store()
	ids := st.Ints(attribute.ParticleID)
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	initial := st.InitialFloats(attribute.Alpha)
	alpha := st.FloatsForWrite(attribute.Alpha)
	now := c.CurrentTime()
	dt := c.Dt()
	for i := 0; i < st.Active(); i++ {
		age, prevAge := now-born[i], now-dt-born[i]
		if f.proportional {
			if life[i] <= 0 {
				continue
			}
			age, prevAge = age/life[i], prevAge/life[i]
		}
		fade := particles.RandomFloatExp(ids[i], offsetFadeIn, f.min, f.max, f.exponent)
		if fade <= 0 {
			continue
		}
		if age >= fade {
			// 淡入在本步结束时补写完整的初始值，之后不再触碰
			if prevAge < fade {
				alpha[i] = initial[i]
			}
			continue
		}
		t := utils.SimpleSpline(utils.Clamp01(age / fade))
		alpha[i] = initial[i] * utils.Lerp(1, t, strength)
	}
}

// FadeOutRandom scales alpha down to 0 over the last part of each
// particle's life.
type FadeOutRandom struct {
	min, max     float64
	exponent     float64
	proportional bool
	easeInOut    bool
}

func newFadeOutRandom(p *particles.Params) (particles.Unit, error) {
	lo, hi := p.OrderedRange("fade_out_time_min", "fade_out_time_max")
	return &FadeOutRandom{
		min:          lo,
		max:          hi,
		exponent:     p.Float("fade_out_time_exp"),
		proportional: p.Bool("proportional"),
		easeInOut:    p.Bool("ease_in_and_out"),
	}, nil
}

func (f *FadeOutRandom) Info() particles.Info {
	return particles.Info{
		Name:         "fade_out_random",
		Reads:        maskAge | attribute.MaskOf(attribute.ParticleID),
		Writes:       attribute.MaskOf(attribute.Alpha),
		ReadsInitial: attribute.MaskOf(attribute.Alpha),
	}
}

func (f *FadeOutRandom) Operate(c *particles.Collection, strength float64, ctx any) {
	st := c.Store()
	ids := st.Ints(attribute.ParticleID)
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	initial := st.InitialFloats(attribute.Alpha)
	alpha := st.FloatsForWrite(attribute.Alpha)
	now := c.CurrentTime()
	for i := 0; i < st.Active(); i++ {
		if life[i] <= 0 {
			continue
		}
		age, span := now-born[i], life[i]
		if f.proportional {
			age, span = age/life[i], 1
		}
		fade := particles.RandomFloatExp(ids[i], offsetFadeOut, f.min, f.max, f.exponent)
		begin := span - fade
		if fade <= 0 || age <= begin {
			continue
		}
		t := utils.Clamp01((age - begin) / fade)
		if f.easeInOut {
			t = utils.SimpleSpline(t)
		}
		alpha[i] = initial[i] * utils.Lerp(1, 1-t, strength)
	}
}

// ColorInterpolate blends the tint from its initial value to color_fade over
// [fade_start_time, fade_end_time] of normalized age and holds it after.
type ColorInterpolate struct {
	color      mgl64.Vec3
	start, end float64
	ease       bool
}

func newColorInterpolate(p *particles.Params) (particles.Unit, error) {
	lo, hi := p.OrderedRange("fade_start_time", "fade_end_time")
	col := p.Color("color_fade")
	return &ColorInterpolate{color: col, start: lo, end: hi, ease: p.Bool("ease_in_out")}, nil
}

func (f *ColorInterpolate) Info() particles.Info {
	return particles.Info{
		Name:         "color_interpolate",
		Reads:        maskAge,
		Writes:       attribute.MaskOf(attribute.Tint),
		ReadsInitial: attribute.MaskOf(attribute.Tint),
	}
}

func (f *ColorInterpolate) Operate(c *particles.Collection, strength float64, ctx any) {
	st := c.Store()
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	initial := st.InitialVecs(attribute.Tint)
	tint := st.VecsForWrite(attribute.Tint)
	target := lane.SplatV(f.color)
	now := c.CurrentTime()
	for b := 0; b < lane.Batches(st.Active()); b++ {
		base := b * lane.Width
		age, live := ageBatch(now, born, life, base)
		in := live.And(age.GreaterEq(lane.Splat(f.start)))
		if !in.Any() {
			continue
		}
		t := remapClamped(age, f.start, f.end, 0, 1)
		if f.ease {
			t = t.Map(utils.SimpleSpline)
		}
		orig := lane.LoadV4(initial, base)
		blended := orig.Add(target.Sub(orig).Mul(t.Scale(strength)))
		lane.SelectV(in, blended, lane.LoadV4(tint, base)).Store(tint, base)
	}
}

// RadiusScale scales the initial radius from start_scale to end_scale over
// [start_time, end_time] of normalized age, shaped by scale_bias, and holds
// end_scale after. Before start_time the radius is left alone.
type RadiusScale struct {
	start, end           float64
	startScale, endScale float64
	bias                 float64
	ease                 bool
}

func newRadiusScale(p *particles.Params) (particles.Unit, error) {
	lo, hi := p.OrderedRange("start_time", "end_time")
	return &RadiusScale{
		start:      lo,
		end:        hi,
		startScale: p.Float("start_scale"),
		endScale:   p.Float("end_scale"),
		bias:       utils.Clamp(p.Float("scale_bias"), 0.001, 0.999),
		ease:       p.Bool("ease_in_out"),
	}, nil
}

func (f *RadiusScale) Info() particles.Info {
	return particles.Info{
		Name:         "radius_scale",
		Reads:        maskAge,
		Writes:       attribute.MaskOf(attribute.Radius),
		ReadsInitial: attribute.MaskOf(attribute.Radius),
	}
}

func (f *RadiusScale) Operate(c *particles.Collection, strength float64, ctx any) {
	st := c.Store()
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	initial := st.InitialFloats(attribute.Radius)
	radius := st.FloatsForWrite(attribute.Radius)
	now := c.CurrentTime()
	bias := func(x float64) float64 { return utils.Bias(x, f.bias) }
	for b := 0; b < lane.Batches(st.Active()); b++ {
		base := b * lane.Width
		age, live := ageBatch(now, born, life, base)
		in := live.And(age.GreaterEq(lane.Splat(f.start)))
		if !in.Any() {
			continue
		}
		t := remapClamped(age, f.start, f.end, 0, 1)
		if f.ease {
			t = t.Map(utils.SimpleSpline)
		} else {
			t = t.Map(bias)
		}
		orig := lane.LoadF4(initial, base)
		scaled := orig.Mul(lane.Splat(f.startScale).Add(lane.Splat(f.endScale - f.startScale).Mul(t)))
		r := orig.Add(scaled.Sub(orig).Scale(strength))
		lane.Select(in, r, lane.LoadF4(radius, base)).Store(radius, base)
	}
}

// Spin advances rotation by the particle's rotation speed plus a constant
// rate, until spin_stop_time (normalized age, 0 = never). With
// random_direction half of the particles, picked by id, spin the other way.
type Spin struct {
	rate      float64
	stopTime  float64
	randomDir bool
}

func newSpin(p *particles.Params) (particles.Unit, error) {
	return &Spin{
		rate:      mgl64.DegToRad(p.Float("spin_rate_degrees")),
		stopTime:  p.Float("spin_stop_time"),
		randomDir: p.Bool("random_direction"),
	}, nil
}

func (s *Spin) Info() particles.Info {
	return particles.Info{
		Name:   "spin",
		Reads:  maskAge | attribute.MaskOf(attribute.RotationSpeed, attribute.ParticleID),
		Writes: attribute.MaskOf(attribute.Rotation),
	}
}

func (s *Spin) Operate(c *particles.Collection, strength float64, ctx any) {
	st := c.Store()
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	speed := st.Floats(attribute.RotationSpeed)
	ids := st.Ints(attribute.ParticleID)
	rot := st.FloatsForWrite(attribute.Rotation)
	now := c.CurrentTime()
	dt := c.Dt() * strength
	for i := 0; i < st.Active(); i++ {
		if s.stopTime > 0 {
			if age, ok := normalizedAge(now, born[i], life[i]); ok && age >= s.stopTime {
				continue
			}
		}
		step := (speed[i] + s.rate) * dt
		if s.randomDir && particles.RandomByID(ids[i], offsetSpin) < 0.5 {
			step = -step
		}
		rot[i] += step
	}
}

// ScalarKeyframes writes a keyframe curve, sampled at normalized age, into
// a scalar attribute, optionally scaled by the attribute's initial value.
type ScalarKeyframes struct {
	field        attribute.Kind
	curve        particles.Curve
	scaleInitial bool
}

func newScalarKeyframes(p *particles.Params) (particles.Unit, error) {
	return &ScalarKeyframes{
		field:        p.FloatAttribute("output_field"),
		curve:        p.Curve("curve"),
		scaleInitial: p.Bool("scale_initial"),
	}, nil
}

func (k *ScalarKeyframes) Info() particles.Info {
	info := particles.Info{
		Name:   "scalar_keyframes",
		Reads:  maskAge,
		Writes: attribute.MaskOf(k.field),
	}
	if k.scaleInitial {
		info.ReadsInitial = attribute.MaskOf(k.field)
	}
	return info
}

func (k *ScalarKeyframes) Operate(c *particles.Collection, strength float64, ctx any) {
	st := c.Store()
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	out := st.FloatsForWrite(k.field)
	var initial []float64
	if k.scaleInitial {
		initial = st.InitialFloats(k.field)
	}
	now := c.CurrentTime()
	for i := 0; i < st.Active(); i++ {
		age, ok := normalizedAge(now, born[i], life[i])
		if !ok {
			continue
		}
		v := k.curve.Eval(age)
		if initial != nil {
			v *= initial[i]
		}
		out[i] = utils.Lerp(out[i], v, strength)
	}
}
