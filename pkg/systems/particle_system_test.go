package systems

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/components"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/ecs"
	"github.com/gonewx/particleops/pkg/entities"
	"github.com/gonewx/particleops/pkg/operators"
	"github.com/gonewx/particleops/pkg/particles"
)

func unit(typ string, kv ...string) particle.UnitConfig {
	uc := particle.UnitConfig{Type: typ, Params: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		uc.Params[kv[i]] = kv[i+1]
	}
	return uc
}

func buildDef(t *testing.T, reg *particles.Registry, cfg particle.EffectConfig) *particles.Definition {
	t.Helper()
	if reg == nil {
		reg = operators.NewRegistry()
	}
	def, err := particles.Build(reg, &cfg)
	if err != nil {
		t.Fatalf("Build(%s) failed: %v", cfg.Name, err)
	}
	return def
}

func shortBurst() particle.EffectConfig {
	return particle.EffectConfig{
		Name:         "burst",
		MaxParticles: 8,
		Emitters:     []particle.UnitConfig{unit("instantaneous_emitter", "num_to_emit", "5")},
		Initializers: []particle.UnitConfig{unit("lifetime_random", "min", "0.2", "max", "0.2")},
		Operators:    []particle.UnitConfig{unit("lifespan_decay")},
	}
}

func longLived(name string, extra ...particle.UnitConfig) particle.EffectConfig {
	return particle.EffectConfig{
		Name:             name,
		MaxParticles:     4,
		InitialParticles: 2,
		Initializers:     append([]particle.UnitConfig{unit("lifetime_random", "min", "100", "max", "100")}, extra...),
	}
}

func createEffect(t *testing.T, em *ecs.EntityManager, def *particles.Definition, opts entities.EffectOptions) (ecs.EntityID, *components.EffectComponent) {
	t.Helper()
	id, err := entities.CreateEffect(em, def, opts)
	if err != nil {
		t.Fatalf("CreateEffect failed: %v", err)
	}
	effect, ok := ecs.GetComponent[*components.EffectComponent](em, id)
	if !ok {
		t.Fatal("effect component missing")
	}
	return id, effect
}

func TestFinishedEffectIsDestroyed(t *testing.T) {
	em := ecs.NewEntityManager()
	ps := NewParticleSystem(em, 2)
	id, _ := createEffect(t, em, buildDef(t, nil, shortBurst()), entities.EffectOptions{})

	for i := 0; i < 10 && em.IsAlive(id); i++ {
		if err := ps.Update(0.1); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if i == 0 && ps.Stats().Particles != 5 {
			t.Errorf("first update Particles = %d, want 5", ps.Stats().Particles)
		}
	}
	if em.IsAlive(id) {
		t.Fatal("finished effect was never destroyed")
	}
}

func TestLoopingEffectRestarts(t *testing.T) {
	em := ecs.NewEntityManager()
	ps := NewParticleSystem(em, 1)
	id, effect := createEffect(t, em, buildDef(t, nil, shortBurst()), entities.EffectOptions{Loop: true})

	restarted := false
	for i := 0; i < 10; i++ {
		ps.Update(0.1)
		if ps.Stats().Restarted == 1 {
			restarted = true
			break
		}
	}
	if !restarted || !em.IsAlive(id) || effect.Restarts != 1 {
		t.Fatalf("restarted=%v alive=%v restarts=%d", restarted, em.IsAlive(id), effect.Restarts)
	}

	ps.Update(0.1)
	if effect.Collection.ActiveCount() != 5 {
		t.Errorf("after restart active = %d, want the burst again", effect.Collection.ActiveCount())
	}
}

func TestAnchorsDriveControlPoints(t *testing.T) {
	em := ecs.NewEntityManager()
	ps := NewParticleSystem(em, 0)
	def := buildDef(t, nil, longLived("anchored", unit("position_within_sphere")))

	frame := controlpoint.IdentityFrame()
	frame.Position = mgl64.Vec3{5, 0, 0}
	_, effect := createEffect(t, em, def, entities.EffectOptions{
		Anchors: []components.AnchorPoint{{ControlPoint: 0, Frame: frame, Velocity: mgl64.Vec3{10, 0, 0}}},
	})

	ps.Update(0.1)
	want := mgl64.Vec3{6, 0, 0}
	for i, p := range effect.Collection.Store().Vecs(attribute.XYZ)[:2] {
		if !p.ApproxEqualThreshold(want, 1e-9) {
			t.Errorf("particle %d at %v, want %v", i, p, want)
		}
	}
}

func TestHitBoxesFollowAnchor(t *testing.T) {
	em := ecs.NewEntityManager()
	ps := NewParticleSystem(em, 0)
	def := buildDef(t, nil, particle.EffectConfig{
		Name:             "bone",
		MaxParticles:     4,
		InitialParticles: 3,
		Initializers: []particle.UnitConfig{
			unit("lifetime_random", "min", "100", "max", "100"),
			unit("position_on_hitbox"),
		},
		Operators: []particle.UnitConfig{unit("lock_to_bone")},
	})
	box := controlpoint.HitBox{Transform: mgl64.Ident4(), Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}
	_, effect := createEffect(t, em, def, entities.EffectOptions{
		Anchors:  []components.AnchorPoint{{ControlPoint: 0, Frame: controlpoint.IdentityFrame(), Velocity: mgl64.Vec3{10, 0, 0}}},
		HitBoxes: &entities.HitBoxSpec{ControlPoint: 0, Boxes: []controlpoint.HitBox{box}},
	})

	for step := 1; step <= 5; step++ {
		ps.Update(0.1)
		moved := box
		moved.Transform = mgl64.Translate3D(float64(step), 0, 0)
		for i, p := range effect.Collection.Store().Vecs(attribute.XYZ)[:3] {
			// 浮点累积误差，用略微放大的盒子判断
			grown := moved
			grown.Min = grown.Min.Sub(mgl64.Vec3{1e-9, 1e-9, 1e-9})
			grown.Max = grown.Max.Add(mgl64.Vec3{1e-9, 1e-9, 1e-9})
			if !grown.Contains(p) {
				t.Fatalf("step %d: particle %d at %v left the moving box", step, i, p)
			}
		}
	}
}

func TestEffectsStepConcurrently(t *testing.T) {
	em := ecs.NewEntityManager()
	ps := NewParticleSystem(em, 4)
	def := buildDef(t, nil, longLived("many", unit("velocity_random", "speed_min", "1", "speed_max", "2")))

	var effects []*components.EffectComponent
	for i := 0; i < 16; i++ {
		_, e := createEffect(t, em, def, entities.EffectOptions{Services: particles.Services{Seed: uint64(i)}})
		effects = append(effects, e)
	}
	paused := effects[3]
	paused.Paused = true
	effects[5].TimeScale = 2

	for i := 0; i < 3; i++ {
		if err := ps.Update(0.05); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if ps.Stats().Effects != 15 || ps.Stats().Particles != 30 {
		t.Errorf("stats = %+v, want 15 effects and 30 particles", ps.Stats())
	}
	for i, e := range effects {
		wantSteps := 3
		if e == paused {
			wantSteps = 0
		}
		if e.Collection.Steps() != wantSteps {
			t.Errorf("effect %d stepped %d times, want %d", i, e.Collection.Steps(), wantSteps)
		}
	}
	if math.Abs(effects[5].Collection.CurrentTime()-0.3) > 1e-9 {
		t.Errorf("time-scaled effect at t=%v, want 0.3", effects[5].Collection.CurrentTime())
	}
}

type panicOperator struct{}

func (panicOperator) Info() particles.Info { return particles.Info{Name: "explode"} }

func (panicOperator) Operate(c *particles.Collection, strength float64, ctx any) {
	panic("boom")
}

func TestPanickingEffectIsIsolated(t *testing.T) {
	reg := operators.NewRegistry()
	reg.MustRegister(particles.Factory{
		Name:  "explode",
		Class: particles.ClassOperator,
		New:   func(p *particles.Params) (particles.Unit, error) { return panicOperator{}, nil },
	})
	bad := longLived("bad")
	bad.Operators = []particle.UnitConfig{unit("explode")}

	em := ecs.NewEntityManager()
	ps := NewParticleSystem(em, 2)
	badID, _ := createEffect(t, em, buildDef(t, reg, bad), entities.EffectOptions{})
	goodID, good := createEffect(t, em, buildDef(t, reg, longLived("good")), entities.EffectOptions{})

	if err := ps.Update(0.1); err == nil {
		t.Fatal("Update swallowed the panic")
	}
	if em.IsAlive(badID) || !em.IsAlive(goodID) {
		t.Errorf("alive: bad=%v good=%v", em.IsAlive(badID), em.IsAlive(goodID))
	}
	if good.Collection.Steps() != 1 || ps.Stats().Failed != 1 {
		t.Errorf("good steps = %d, failed = %d", good.Collection.Steps(), ps.Stats().Failed)
	}
}

func TestLifetimeSystemExpiresEffects(t *testing.T) {
	em := ecs.NewEntityManager()
	ls := NewLifetimeSystem(em)
	ps := NewParticleSystem(em, 1)
	def := buildDef(t, nil, particle.EffectConfig{
		Name:         "stream",
		MaxParticles: 100,
		Emitters:     []particle.UnitConfig{unit("continuous_emitter", "emission_rate", "10")},
	})
	id, _ := createEffect(t, em, def, entities.EffectOptions{Loop: true, MaxLifetime: 0.25})

	for i := 0; i < 2; i++ {
		ls.Update(0.1)
		ps.Update(0.1)
	}
	if !em.IsAlive(id) {
		t.Fatal("effect expired early")
	}
	ls.Update(0.1)
	ps.Update(0.1)
	if em.IsAlive(id) {
		t.Error("effect outlived MaxLifetime")
	}
}
