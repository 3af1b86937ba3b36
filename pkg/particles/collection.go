package particles

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
)

// Collection is one simulated swarm of particles.
//
// A collection and its children are stepped by one goroutine at a time;
// independent root collections may be stepped concurrently.
type Collection struct {
	def      *Definition
	services Services
	store    *attribute.Store
	cps      *controlpoint.Set
	contexts []any

	curTime float64
	dt      float64
	prevDt  float64
	stepped bool
	steps   int
	nextID  int32

	kills     []int
	satisfied []bool
	running   *Instance
	rng       *rand.Rand
	salt      uint64
	hitBoxCPs uint64

	parent                 *Collection
	firstChild, next, prev *Collection
}

// NewCollection creates a collection (and its child collections) for def.
func NewCollection(def *Definition, services Services) *Collection {
	return newCollection(def, services.withDefaults(), nil, 0)
}

func newCollection(def *Definition, services Services, parent *Collection, salt uint64) *Collection {
	c := &Collection{
		def:      def,
		services: services,
		store:    attribute.NewStore(def.MaxParticles, def.InitialMask),
		cps:      controlpoint.NewSet(),
		contexts: make([]any, def.slots),
		parent:   parent,
		salt:     salt,
	}
	c.rng = rand.New(rand.NewPCG(services.Seed, salt))
	c.store.EnableValidation(services.ValidateAccess)
	c.satisfied = make([]bool, len(def.Constraints))

	for _, in := range def.Units() {
		if cu, ok := in.Unit.(ContextUnit); ok {
			c.contexts[in.Slot] = cu.NewContext()
		}
	}
	// 子集合按定义顺序挂到双向链表上
	for i, childDef := range def.Children {
		c.addChild(newCollection(childDef, services, c, salt*31+uint64(i)+1))
	}
	c.initContexts()
	c.hitBoxCPs = def.HitBoxControlPoints
	for ch := c.firstChild; ch != nil; ch = ch.next {
		c.hitBoxCPs |= ch.hitBoxCPs
	}
	return c
}

func (c *Collection) addChild(child *Collection) {
	if c.firstChild == nil {
		c.firstChild = child
		return
	}
	last := c.firstChild
	for last.next != nil {
		last = last.next
	}
	last.next = child
	child.prev = last
}

func (c *Collection) initContexts() {
	for _, in := range c.def.Units() {
		if cu, ok := in.Unit.(ContextUnit); ok {
			cu.InitializeContextData(c, c.contexts[in.Slot])
		}
	}
}

// Definition returns the shared definition.
func (c *Collection) Definition() *Definition { return c.def }

// Name returns the definition name.
func (c *Collection) Name() string { return c.def.Name }

// Services returns the service context.
func (c *Collection) Services() Services { return c.services }

// Store returns the attribute store.
func (c *Collection) Store() *attribute.Store { return c.store }

// ControlPoints returns the control point set.
func (c *Collection) ControlPoints() *controlpoint.Set { return c.cps }

// ActiveCount returns the number of live particles.
func (c *Collection) ActiveCount() int { return c.store.Active() }

// PaddedCount returns ActiveCount rounded up to the lane width.
func (c *Collection) PaddedCount() int { return c.store.Padded() }

// CurrentTime is the collection time at the end of the current step.
func (c *Collection) CurrentTime() float64 { return c.curTime }

// PrevTime is the collection time at the start of the current step.
func (c *Collection) PrevTime() float64 { return c.curTime - c.dt }

// Dt is the length of the current (or last) step.
func (c *Collection) Dt() float64 { return c.dt }

// PrevDt is the length of the step before the current one.
func (c *Collection) PrevDt() float64 { return c.prevDt }

// Steps counts completed Simulate calls.
func (c *Collection) Steps() int { return c.steps }

// Parent returns the parent collection, or nil for a root.
func (c *Collection) Parent() *Collection { return c.parent }

// Children returns the child collections in definition order.
func (c *Collection) Children() []*Collection {
	var out []*Collection
	for ch := c.firstChild; ch != nil; ch = ch.next {
		out = append(out, ch)
	}
	return out
}

// Context returns the scratch context of a unit instance.
func (c *Collection) Context(in *Instance) any {
	if in == nil || in.Slot < 0 || in.Slot >= len(c.contexts) {
		return nil
	}
	return c.contexts[in.Slot]
}

// Violations counts access-mask violations in this collection and its children.
func (c *Collection) Violations() int {
	n := c.store.Violations()
	for ch := c.firstChild; ch != nil; ch = ch.next {
		n += ch.Violations()
	}
	return n
}

// SetControlPoint moves a control point here and in every child collection.
func (c *Collection) SetControlPoint(id int, pos mgl64.Vec3) {
	c.cps.SetControlPoint(id, pos)
	for ch := c.firstChild; ch != nil; ch = ch.next {
		ch.SetControlPoint(id, pos)
	}
}

// SetControlPointOrientation sets the basis of a control point here and in children.
func (c *Collection) SetControlPointOrientation(id int, forward, right, up mgl64.Vec3) {
	c.cps.SetControlPointOrientation(id, forward, right, up)
	for ch := c.firstChild; ch != nil; ch = ch.next {
		ch.SetControlPointOrientation(id, forward, right, up)
	}
}

// SetControlPointFrame sets position and orientation here and in children.
func (c *Collection) SetControlPointFrame(id int, f controlpoint.Frame) {
	c.cps.SetFrame(id, f)
	for ch := c.firstChild; ch != nil; ch = ch.next {
		ch.SetControlPointFrame(id, f)
	}
}

// SetControlPointParent sets a control point parent here and in children.
func (c *Collection) SetControlPointParent(id, parent int) {
	c.cps.SetControlPointParent(id, parent)
	for ch := c.firstChild; ch != nil; ch = ch.next {
		ch.SetControlPointParent(id, parent)
	}
}

// ResetControlPointHistory drops the previous sample of id so the next step
// sees no movement (teleport).
func (c *Collection) ResetControlPointHistory(id int) {
	c.cps.ResetHistory(id)
	for ch := c.firstChild; ch != nil; ch = ch.next {
		ch.ResetControlPointHistory(id)
	}
}

// GetControlPointAtTime returns the world position of a control point.
func (c *Collection) GetControlPointAtTime(id int, t float64) mgl64.Vec3 {
	return c.cps.GetControlPointAtTime(id, t)
}

// GetControlPointTransformAtTime returns the world transform of a control point.
func (c *Collection) GetControlPointTransformAtTime(id int, t float64) mgl64.Mat4 {
	return c.cps.GetControlPointTransformAtTime(id, t)
}

// HitBoxes returns the hit-box snapshot of the model attached to cp.
func (c *Collection) HitBoxes(cp int) controlpoint.HitBoxSnapshot {
	return c.services.HitBoxes.HitBoxes(cp)
}

// AddParticles appends up to n particles and returns the first new index and
// the number created. Requests beyond the collection limit are dropped.
// New particles get an id, a creation time at the start of the current step
// and default attributes; initializers run on them later in the step.
func (c *Collection) AddParticles(n int) (start, added int) {
	start, added = c.store.Grow(n)
	if added == 0 {
		return start, 0
	}
	c.store.Unvalidated(func() {
		ids := c.store.IntsForWrite(attribute.ParticleID)
		born := c.store.FloatsForWrite(attribute.CreationTime)
		t := c.PrevTime()
		for i := start; i < start+added; i++ {
			ids[i] = c.nextID
			c.nextID++
			born[i] = t
		}
	})
	return start, added
}

// KillParticle queues particle i for removal. Kills are applied after the
// running unit returns, so indices stay valid within one unit.
func (c *Collection) KillParticle(i int) {
	if i < 0 || i >= c.store.Active() {
		return
	}
	c.kills = append(c.kills, i)
}

func (c *Collection) applyKills() {
	if len(c.kills) == 0 {
		return
	}
	// 从大到小删除，保证被换入的末尾粒子不会再被删除一次
	slices.Sort(c.kills)
	last := -1
	for j := len(c.kills) - 1; j >= 0; j-- {
		i := c.kills[j]
		if i == last {
			continue
		}
		last = i
		c.store.Kill(i)
	}
	c.kills = c.kills[:0]
}

// enter makes in the running unit for the access validator and returns the
// previously running unit.
func (c *Collection) enter(in *Instance) *Instance {
	prev := c.running
	c.running = in
	if in == nil {
		c.store.ClearAccess()
	} else {
		c.store.SetAccess(in.Info.Name, in.Info.Reads, in.Info.Writes, in.Info.ReadsInitial)
	}
	return prev
}

// Simulate advances the collection and its children by dt seconds.
// dt <= 0 is ignored.
func (c *Collection) Simulate(dt float64) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return
	}
	if !c.stepped {
		c.prevDt = dt
		// 第一步没有历史采样
		c.cps.Latch()
	}
	c.dt = dt
	c.curTime += dt
	c.cps.SetTime(c.curTime-dt, c.curTime)
	// 整棵树共享一份快照，只由根集合刷新
	if c.parent == nil {
		c.refreshHitBoxes()
	}

	born := c.store.Active()
	if !c.stepped && c.def.InitialParticles > 0 {
		c.AddParticles(c.def.InitialParticles)
	}
	for _, in := range c.def.Emitters {
		c.enter(in)
		in.Unit.(Emitter).Operate(c, in.Strength(c.curTime), c.contexts[in.Slot])
	}
	c.enter(nil)

	if n := c.store.Active() - born; n > 0 {
		for _, in := range c.def.Initializers {
			c.enter(in)
			in.Unit.(Initializer).InitNewParticles(c, born, n, c.contexts[in.Slot])
		}
		c.enter(nil)
		c.store.CaptureInitial(born, n)
	}
	c.applyKills()

	for _, in := range c.def.Operators {
		strength := in.Strength(c.curTime)
		if strength <= 0 {
			continue
		}
		c.enter(in)
		in.Unit.(Operator).Operate(c, strength, c.contexts[in.Slot])
		c.enter(nil)
		c.applyKills()
	}

	for ch := c.firstChild; ch != nil; ch = ch.next {
		ch.Simulate(dt)
	}

	c.cps.Latch()
	c.prevDt = dt
	c.stepped = true
	c.steps++
}

func (c *Collection) refreshHitBoxes() {
	mask := c.hitBoxCPs
	for cp := 0; mask != 0; cp++ {
		if mask&1 != 0 {
			c.services.HitBoxes.UpdateHitBoxInfo(cp)
		}
		mask >>= 1
	}
}

// AccumulateForces lets every force generator of the definition add into
// accum (length PaddedCount). Called by the movement operator.
func (c *Collection) AccumulateForces(accum []mgl64.Vec3) {
	for _, in := range c.def.Forces {
		strength := in.Strength(c.curTime)
		if strength <= 0 {
			continue
		}
		prev := c.enter(in)
		in.Unit.(ForceGenerator).AddForces(c, accum, strength, c.contexts[in.Slot])
		c.enter(prev)
	}
}

// EnforceConstraints runs the constraint solver: non-final constraints are
// re-run until a whole pass changes nothing or maxPasses is reached, then
// every final constraint runs once. A constraint that changes particles
// marks every other constraint unsatisfied.
func (c *Collection) EnforceConstraints(maxPasses int) {
	cons := c.def.Constraints
	if len(cons) == 0 || c.store.Active() == 0 {
		return
	}
	end := c.store.Active()
	for j := range c.satisfied {
		c.satisfied[j] = false
	}

	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for j, in := range cons {
			con := in.Unit.(Constraint)
			if c.satisfied[j] || con.IsFinal() || in.Strength(c.curTime) <= 0 {
				continue
			}
			c.satisfied[j] = true
			prev := c.enter(in)
			moved := con.EnforceConstraint(c, 0, end, c.contexts[in.Slot])
			c.enter(prev)
			if moved {
				changed = true
				for k := range c.satisfied {
					if k != j {
						c.satisfied[k] = false
					}
				}
			}
		}
		if !changed {
			break
		}
	}

	for _, in := range cons {
		con := in.Unit.(Constraint)
		if !con.IsFinal() || in.Strength(c.curTime) <= 0 {
			continue
		}
		prev := c.enter(in)
		con.EnforceConstraint(c, 0, end, c.contexts[in.Slot])
		c.enter(prev)
	}
}

// IsFinished reports whether the tree has no live particles and no emitter
// that may still create some.
func (c *Collection) IsFinished() bool {
	if c.store.Active() > 0 {
		return false
	}
	if c.MayEmit() {
		return false
	}
	for ch := c.firstChild; ch != nil; ch = ch.next {
		if !ch.IsFinished() {
			return false
		}
	}
	return true
}

// MayEmit reports whether this collection (not its children) can still
// create particles.
func (c *Collection) MayEmit() bool {
	if !c.stepped && c.def.InitialParticles > 0 {
		return true
	}
	for _, in := range c.def.Emitters {
		if in.Unit.(Emitter).MayCreateMoreParticles(c, c.contexts[in.Slot]) {
			return true
		}
	}
	return false
}

// Restart drops every particle, rewinds time to zero and re-initializes the
// unit contexts of the whole tree. Particle ids keep increasing.
func (c *Collection) Restart() {
	c.store.Truncate()
	c.kills = c.kills[:0]
	c.curTime, c.dt, c.prevDt = 0, 0, 0
	c.stepped = false
	c.steps = 0
	c.rng = rand.New(rand.NewPCG(c.services.Seed, c.salt))
	for ch := c.firstChild; ch != nil; ch = ch.next {
		ch.Restart()
	}
	c.initContexts()
}

// RandomFloat draws from the collection's random stream in [lo, hi).
func (c *Collection) RandomFloat(lo, hi float64) float64 {
	return lo + (hi-lo)*c.rng.Float64()
}

// RandomFloatExp draws in [lo, hi] shaped by exp.
func (c *Collection) RandomFloatExp(lo, hi, exp float64) float64 {
	r := c.rng.Float64()
	if exp != 1 {
		r = math.Pow(r, exp)
	}
	return lo + (hi-lo)*r
}

// RandomUnitVector draws a direction uniformly on the unit sphere.
func (c *Collection) RandomUnitVector() mgl64.Vec3 {
	z := 2*c.rng.Float64() - 1
	phi := 2 * math.Pi * c.rng.Float64()
	r := math.Sqrt(1 - z*z)
	return mgl64.Vec3{r * math.Cos(phi), r * math.Sin(phi), z}
}

// RandomVector draws each component independently in [lo, hi).
func (c *Collection) RandomVector(lo, hi mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		c.RandomFloat(lo[0], hi[0]),
		c.RandomFloat(lo[1], hi[1]),
		c.RandomFloat(lo[2], hi[2]),
	}
}
