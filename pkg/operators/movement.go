package operators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/lane"
	"github.com/gonewx/particleops/pkg/particles"
	"github.com/gonewx/particleops/pkg/utils"
)

// dragDecayTime is the reference interval the drag coefficient is defined
// over: drag d removes the fraction d of the velocity every 1/30 second.
const dragDecayTime = 1.0 / 30

// BasicMovement integrates positions with Verlet steps:
//
//	newPrev = cur + accel*dt^2 + adjDrag*(cur - prev)
//
// after which the current and previous columns swap roles. accel starts at
// gravity and collects every force generator of the definition; the
// constraint solver runs on the result.
type BasicMovement struct {
	gravity   mgl64.Vec3
	drag      float64
	maxPasses int
}

type movementContext struct {
	accum []mgl64.Vec3
}

func newBasicMovement(p *particles.Params) (particles.Unit, error) {
	m := &BasicMovement{
		gravity:   p.Vector("gravity"),
		drag:      utils.Clamp01(p.Float("drag")),
		maxPasses: p.Int("max_constraint_passes"),
	}
	if m.maxPasses < 0 {
		m.maxPasses = 0
	}
	return m, nil
}

func (m *BasicMovement) Info() particles.Info {
	return particles.Info{
		Name:   "basic_movement",
		Reads:  maskPosition,
		Writes: maskPosition,
	}
}

// DrivesForces marks this operator as the one that runs forces and constraints.
func (m *BasicMovement) DrivesForces() bool { return true }

func (m *BasicMovement) NewContext() any { return &movementContext{} }

func (m *BasicMovement) InitializeContextData(c *particles.Collection, ctx any) {
	st := ctx.(*movementContext)
	if cap(st.accum) < c.Store().Capacity() {
		st.accum = make([]mgl64.Vec3, c.Store().Capacity())
	}
}

// AdjustedDrag folds the frame-time ratio into the per-step drag factor so
// the integration stays stable when dt varies.
func AdjustedDrag(drag, dt, prevDt float64) float64 {
	ratio := 1.0
	if prevDt > 0 {
		ratio = dt / prevDt
	}
	return ratio * utils.ExponentialDecay(1-drag, dragDecayTime, dt)
}

func (m *BasicMovement) Operate(c *particles.Collection, strength float64, ctx any) {
	st := c.Store()
	n := st.Padded()
	dt := c.Dt()
	if n == 0 || dt <= 0 {
		return
	}

	mc := ctx.(*movementContext)
	accum := mc.accum[:n]
	for i := range accum {
		accum[i] = m.gravity
	}
	c.AccumulateForces(accum)

	adj := AdjustedDrag(m.drag, dt, c.PrevDt())
	dt2 := dt * dt
	cur := st.VecsForWrite(attribute.XYZ)
	prev := st.VecsForWrite(attribute.PrevXYZ)

	for base := 0; base < n; base += lane.Width {
		p := lane.LoadV4(cur, base)
		q := lane.LoadV4(prev, base)
		a := lane.LoadV4(accum, base)
		np := p.Add(a.Scale(dt2)).Add(p.Sub(q).Scale(adj))
		if strength < 1 {
			np = p.Add(np.Sub(p).Scale(strength))
		}
		np.Store(prev, base)
	}
	// prev 列现在保存新位置，交换列角色
	st.SwapPositions()

	c.EnforceConstraints(m.maxPasses)
}
