package operators

import (
	"math"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/particles"
	"github.com/gonewx/particleops/pkg/utils"
)

// emitEpsilon keeps exact-boundary counts (10.000000000000002 or
// 9.999999999999998 for rate 100 over 0.1s) on the intended integer.
const emitEpsilon = 1e-6

// InstantaneousEmitter creates a burst once the collection reaches start_time.
type InstantaneousEmitter struct {
	count     int
	startTime float64
}

type instantaneousContext struct {
	done bool
}

func newInstantaneousEmitter(p *particles.Params) (particles.Unit, error) {
	e := &InstantaneousEmitter{
		count:     p.Int("num_to_emit"),
		startTime: p.Float("start_time"),
	}
	if e.count < 0 {
		e.count = 0
	}
	return e, nil
}

func (e *InstantaneousEmitter) Info() particles.Info {
	return particles.Info{
		Name:   "instantaneous_emitter",
		Writes: attribute.MaskOf(attribute.CreationTime),
	}
}

func (e *InstantaneousEmitter) NewContext() any { return &instantaneousContext{} }

func (e *InstantaneousEmitter) InitializeContextData(c *particles.Collection, ctx any) {
	ctx.(*instantaneousContext).done = c.CurrentTime() > e.startTime
}

func (e *InstantaneousEmitter) Operate(c *particles.Collection, strength float64, ctx any) {
	st := ctx.(*instantaneousContext)
	if st.done || c.CurrentTime() < e.startTime {
		return
	}
	st.done = true

	n := int(math.Floor(float64(e.count)*strength + 0.5))
	start, added := c.AddParticles(n)
	if added == 0 {
		return
	}
	born := c.Store().FloatsForWrite(attribute.CreationTime)
	t := math.Max(e.startTime, c.PrevTime())
	for i := start; i < start+added; i++ {
		born[i] = t
	}
}

func (e *InstantaneousEmitter) MayCreateMoreParticles(c *particles.Collection, ctx any) bool {
	return !ctx.(*instantaneousContext).done
}

// ContinuousEmitter emits at emission_rate particles per second between
// start_time and start_time+emission_duration (forever when the duration is
// 0). Fractional particles carry over between steps.
type ContinuousEmitter struct {
	rate      float64
	duration  float64
	startTime float64
}

type continuousContext struct {
	counter float64
	emitted int
}

func newContinuousEmitter(p *particles.Params) (particles.Unit, error) {
	e := &ContinuousEmitter{
		rate:      math.Max(0, p.Float("emission_rate")),
		duration:  math.Max(0, p.Float("emission_duration")),
		startTime: p.Float("start_time"),
	}
	return e, nil
}

func (e *ContinuousEmitter) Info() particles.Info {
	return particles.Info{
		Name:   "continuous_emitter",
		Writes: attribute.MaskOf(attribute.CreationTime),
	}
}

func (e *ContinuousEmitter) NewContext() any { return &continuousContext{} }

func (e *ContinuousEmitter) InitializeContextData(c *particles.Collection, ctx any) {
	*ctx.(*continuousContext) = continuousContext{}
}

func (e *ContinuousEmitter) endTime() float64 {
	if e.duration <= 0 {
		return math.Inf(1)
	}
	return e.startTime + e.duration
}

func (e *ContinuousEmitter) Operate(c *particles.Collection, strength float64, ctx any) {
	st := ctx.(*continuousContext)
	lo := math.Max(c.PrevTime(), e.startTime)
	hi := math.Min(c.CurrentTime(), e.endTime())
	if hi <= lo {
		return
	}

	st.counter += e.rate * strength * (hi - lo)
	total := int(math.Floor(st.counter + emitEpsilon))
	n := total - st.emitted
	st.emitted = total
	if n <= 0 {
		return
	}

	// 超出上限的部分直接丢弃，但计数照常推进
	start, added := c.AddParticles(n)
	born := c.Store().FloatsForWrite(attribute.CreationTime)
	for k := 0; k < added; k++ {
		born[start+k] = utils.Lerp(lo, hi, float64(k)/float64(n))
	}
}

func (e *ContinuousEmitter) MayCreateMoreParticles(c *particles.Collection, ctx any) bool {
	return e.rate > 0 && c.CurrentTime() < e.endTime()
}
