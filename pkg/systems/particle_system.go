package systems

import (
	"errors"
	"fmt"
	"log"
	"runtime"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/gonewx/particleops/pkg/components"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/ecs"
	"github.com/gonewx/particleops/pkg/particles"
)

// ParticleSystem steps every effect entity once per update.
//
// An update runs in three phases:
//  1. Write anchors into control points and pose hit-boxes (sequential)
//  2. Simulate the collection trees, up to Workers at a time
//  3. Restart finished looping effects and destroy the other finished ones
//
// Collection trees share nothing mutable, so phase 2 needs no locking. Phases 1
// and 3 touch the EntityManager and stay on the calling goroutine.
type ParticleSystem struct {
	entityManager *ecs.EntityManager
	workers       int
	stats         Stats
}

// Stats summarizes the last update.
type Stats struct {
	Effects   int
	Particles int
	Restarted int
	Destroyed int
	Failed    int
}

type stepJob struct {
	id     ecs.EntityID
	effect *components.EffectComponent
	dt     float64
	err    error
}

// NewParticleSystem creates a ParticleSystem. workers <= 0 uses GOMAXPROCS.
func NewParticleSystem(em *ecs.EntityManager, workers int) *ParticleSystem {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ParticleSystem{entityManager: em, workers: workers}
}

// Stats returns the statistics of the last Update.
func (ps *ParticleSystem) Stats() Stats { return ps.stats }

// Update advances every unpaused effect by dt seconds (scaled per effect).
// Effects that panic while stepping are destroyed; their errors are joined
// into the returned error. Destroyed entities are removed before returning.
func (ps *ParticleSystem) Update(dt float64) error {
	ps.stats = Stats{}
	if !(dt > 0) {
		return nil
	}

	jobs := ps.collectJobs(dt)

	var g errgroup.Group
	g.SetLimit(ps.workers)
	for i := range jobs {
		job := &jobs[i]
		g.Go(func() error {
			job.err = stepEffect(job)
			return nil
		})
	}
	// 错误记录在各自的 job 上，goroutine 总是返回 nil
	g.Wait()

	var errs []error
	for i := range jobs {
		job := &jobs[i]
		if job.err != nil {
			log.Printf("[ParticleSystem] %v", job.err)
			errs = append(errs, job.err)
			ps.entityManager.DestroyEntity(job.id)
			ps.stats.Failed++
			continue
		}
		ps.reap(job)
	}
	ps.entityManager.RemoveMarkedEntities()
	return errors.Join(errs...)
}

// collectJobs runs phase 1 and returns the effects to step.
func (ps *ParticleSystem) collectJobs(dt float64) []stepJob {
	ids := ecs.GetEntitiesWith1[*components.EffectComponent](ps.entityManager)
	jobs := make([]stepJob, 0, len(ids))
	for _, id := range ids {
		if ps.entityManager.IsMarkedForDestroy(id) {
			continue
		}
		effect, ok := ecs.GetComponent[*components.EffectComponent](ps.entityManager, id)
		if !ok || effect.Collection == nil || effect.Paused {
			continue
		}
		step := effect.ScaledDt(dt)
		if anchors, ok := ecs.GetComponent[*components.AnchorComponent](ps.entityManager, id); ok {
			applyAnchors(effect.Collection, anchors, step)
		}
		if hb, ok := ecs.GetComponent[*components.HitBoxComponent](ps.entityManager, id); ok {
			poseHitBoxes(effect.Collection, hb)
		}
		jobs = append(jobs, stepJob{id: id, effect: effect, dt: step})
	}
	ps.stats.Effects = len(jobs)
	return jobs
}

func stepEffect(job *stepJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect %s (entity %d) panicked: %v", job.effect.Name, job.id, r)
		}
	}()
	job.effect.Collection.Simulate(job.dt)
	return nil
}

// reap is phase 3 for one effect.
func (ps *ParticleSystem) reap(job *stepJob) {
	effect := job.effect
	if !effect.Collection.IsFinished() {
		ps.stats.Particles += CountParticles(effect.Collection)
		return
	}
	if effect.Loop {
		effect.Collection.Restart()
		effect.Restarts++
		ps.stats.Restarted++
		return
	}
	log.Printf("[ParticleSystem] Effect %s (entity %d) finished after %d steps", effect.Name, job.id, effect.Collection.Steps())
	ps.entityManager.DestroyEntity(job.id)
	ps.stats.Destroyed++
}

// applyAnchors moves the anchors by their velocity and writes them into the
// collection's control points.
func applyAnchors(c *particles.Collection, anchors *components.AnchorComponent, dt float64) {
	for i := range anchors.Points {
		a := &anchors.Points[i]
		if a.Velocity != (mgl64.Vec3{}) {
			a.Frame.Position = a.Frame.Position.Add(a.Velocity.Mul(dt))
		}
		c.SetControlPointFrame(a.ControlPoint, a.Frame)
		if a.Teleport {
			c.ResetControlPointHistory(a.ControlPoint)
			a.Teleport = false
		}
	}
}

// poseHitBoxes places the local-space boxes at the control point's current
// frame and queues them on the effect's hit-box service.
func poseHitBoxes(c *particles.Collection, hb *components.HitBoxComponent) {
	if hb.Service == nil {
		return
	}
	m := c.ControlPoints().Frame(hb.ControlPoint).Transform()
	posed := make([]controlpoint.HitBox, len(hb.Boxes))
	for i, b := range hb.Boxes {
		posed[i] = b
		posed[i].Transform = m.Mul4(b.Transform)
	}
	hb.Service.Pose(hb.ControlPoint, posed)
}

// CountParticles returns the live particles of a collection tree.
func CountParticles(c *particles.Collection) int {
	n := c.ActiveCount()
	for _, ch := range c.Children() {
		n += CountParticles(ch)
	}
	return n
}
