package operators

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/particles"
	"github.com/gonewx/particleops/pkg/utils"
)

// lockIdentityEpsilon is the per-element tolerance below which a control point
// delta counts as no motion.
const lockIdentityEpsilon = 1e-9

// PositionLock carries particles along with the motion of a control point
// over the step. The lock fades out with normalized age between a random
// start and end (per particle), and with distance from the control point
// when range is set. Both current and previous positions move, so the lock
// does not add velocity.
type PositionLock struct {
	cp                   int
	lockRotation         bool
	startMin, startMax   float64
	endMin, endMax       float64
	exponent             float64
	lockRange, rangeBias float64
}

func newPositionLock(p *particles.Params) (particles.Unit, error) {
	sMin, sMax := p.OrderedRange("start_fadeout_min", "start_fadeout_max")
	eMin, eMax := p.OrderedRange("end_fadeout_min", "end_fadeout_max")
	return &PositionLock{
		cp:           p.ControlPoint("control_point"),
		lockRotation: p.Bool("lock_rotation"),
		startMin:     sMin,
		startMax:     sMax,
		endMin:       eMin,
		endMax:       eMax,
		exponent:     p.Float("fadeout_exponent"),
		lockRange:    p.Float("range"),
		rangeBias:    utils.Clamp(p.Float("range_bias"), 0.001, 0.999),
	}, nil
}

func (l *PositionLock) Info() particles.Info {
	return particles.Info{
		Name:          "position_lock",
		Reads:         maskAge | attribute.MaskOf(attribute.ParticleID),
		Writes:        maskPosition,
		ControlPoints: particles.CP(l.cp),
	}
}

// delta returns the transform of the control point motion over the current
// step, and false when the control point did not move.
func (l *PositionLock) delta(c *particles.Collection) (mgl64.Mat4, bool) {
	prevM := c.GetControlPointTransformAtTime(l.cp, c.PrevTime())
	curM := c.GetControlPointTransformAtTime(l.cp, c.CurrentTime())
	// 静止的控制点直接比较两次采样，不经过求逆（求逆会引入舍入误差）
	if matNearlyEqual(prevM, curM, lockIdentityEpsilon) {
		return mgl64.Ident4(), false
	}
	var d mgl64.Mat4
	if l.lockRotation {
		d = controlpoint.DeltaTransform(prevM, curM)
	} else {
		move := curM.Col(3).Vec3().Sub(prevM.Col(3).Vec3())
		d = mgl64.Translate3D(move[0], move[1], move[2])
	}
	return d, !matNearlyEqual(d, mgl64.Ident4(), lockIdentityEpsilon)
}

// matNearlyEqual compares element by element with an absolute tolerance.
func matNearlyEqual(a, b mgl64.Mat4, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func (l *PositionLock) weight(c *particles.Collection, id int32, born, life, dist float64) float64 {
	w := 1.0
	if l.endMax > 0 && life > 0 {
		age := (c.CurrentTime() - born) / life
		start := particles.RandomFloatExp(id, offsetLockStart, l.startMin, l.startMax, l.exponent)
		end := particles.RandomFloatExp(id, offsetLockEnd, l.endMin, l.endMax, l.exponent)
		switch {
		case age >= end:
			return 0
		case age > start && end > start:
			w = 1 - (age-start)/(end-start)
		}
	}
	if l.lockRange > 0 {
		w *= 1 - utils.Bias(utils.Clamp01(dist/l.lockRange), l.rangeBias)
	}
	// 本步中途出生的粒子只跟随出生之后那一段运动
	if dt := c.Dt(); dt > 0 && born > c.PrevTime() {
		w *= utils.Clamp01((c.CurrentTime() - born) / dt)
	}
	return w
}

func (l *PositionLock) Operate(c *particles.Collection, strength float64, ctx any) {
	d, moved := l.delta(c)
	if !moved {
		return
	}
	st := c.Store()
	ids := st.Ints(attribute.ParticleID)
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	xyz := st.VecsForWrite(attribute.XYZ)
	prev := st.VecsForWrite(attribute.PrevXYZ)
	center := c.GetControlPointAtTime(l.cp, c.CurrentTime())

	for i := 0; i < st.Active(); i++ {
		w := strength * l.weight(c, ids[i], born[i], life[i], xyz[i].Sub(center).Len())
		if w <= 0 {
			continue
		}
		moveCur := mgl64.TransformCoordinate(xyz[i], d).Sub(xyz[i])
		movePrev := mgl64.TransformCoordinate(prev[i], d).Sub(prev[i])
		xyz[i] = xyz[i].Add(moveCur.Mul(w))
		prev[i] = prev[i].Add(movePrev.Mul(w))
	}
}

// LockToBone moves particles with the hit-box they were placed on by
// position_on_hitbox. It does nothing until the hit-box snapshot has both a
// current and a previous pose.
type LockToBone struct {
	cp                 int
	fadeStart, fadeEnd float64
}

func newLockToBone(p *particles.Params) (particles.Unit, error) {
	lo, hi := p.OrderedRange("lifetime_fade_start", "lifetime_fade_end")
	return &LockToBone{cp: p.ControlPoint("control_point"), fadeStart: lo, fadeEnd: hi}, nil
}

func (l *LockToBone) Info() particles.Info {
	return particles.Info{
		Name:          "lock_to_bone",
		Reads:         maskAge | attribute.MaskOf(attribute.HitboxIndex, attribute.HitboxRelXYZ),
		Writes:        maskPosition,
		ControlPoints: particles.CP(l.cp),
		UsesHitBoxes:  true,
	}
}

func (l *LockToBone) Operate(c *particles.Collection, strength float64, ctx any) {
	snap := c.HitBoxes(l.cp)
	if !snap.Ready() {
		return
	}
	st := c.Store()
	idx := st.Ints(attribute.HitboxIndex)
	rel := st.Vecs(attribute.HitboxRelXYZ)
	born := st.Floats(attribute.CreationTime)
	life := st.Floats(attribute.LifeDuration)
	xyz := st.VecsForWrite(attribute.XYZ)
	prev := st.VecsForWrite(attribute.PrevXYZ)
	now := c.CurrentTime()

	for i := 0; i < st.Active(); i++ {
		b := int(idx[i])
		if b < 0 || b >= len(snap.Current) {
			continue
		}
		w := strength
		if l.fadeEnd > 0 {
			if age, ok := normalizedAge(now, born[i], life[i]); ok {
				w *= 1 - utils.RemapValClamped(age, l.fadeStart, l.fadeEnd, 0, 1)
			}
		}
		if w <= 0 {
			continue
		}
		move := snap.Current[b].PointAt(rel[i]).Sub(snap.Previous[b].PointAt(rel[i])).Mul(w)
		xyz[i] = xyz[i].Add(move)
		prev[i] = prev[i].Add(move)
	}
}
