package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/components"
	"github.com/gonewx/particleops/pkg/config"
	"github.com/gonewx/particleops/pkg/ecs"
	"github.com/gonewx/particleops/pkg/entities"
	"github.com/gonewx/particleops/pkg/operators"
	"github.com/gonewx/particleops/pkg/particles"
	"github.com/gonewx/particleops/pkg/systems"
)

// Simulator 驱动配置中列出的全部特效实体
type Simulator struct {
	config         *config.SimulationConfig
	entityManager  *ecs.EntityManager
	particleSystem *systems.ParticleSystem
	lifetimeSystem *systems.LifetimeSystem

	// effects 按配置顺序记录创建的实体
	effects []ecs.EntityID

	step int
}

// StepReport 一步模拟后的统计
type StepReport struct {
	Step      int
	Time      float64
	Effects   int
	Particles int
	Restarted int
	Destroyed int
	Failed    int
}

// NewSimulator 按配置创建特效实体
//
// 库中的定义会先应用配置的全局覆盖项（原地修改）。
// 每个实例的随机种子为 randomSeed + 序号，结果可复现。
func NewSimulator(cfg *config.SimulationConfig, lib *particle.EffectLibrary) (*Simulator, error) {
	if cfg == nil || lib == nil {
		return nil, fmt.Errorf("simulator needs a config and an effect library")
	}
	if len(cfg.Effects) == 0 {
		return nil, fmt.Errorf("no effects configured")
	}
	for i := range lib.Effects {
		cfg.ApplyOverrides(&lib.Effects[i])
	}

	em := ecs.NewEntityManager()
	s := &Simulator{
		config:         cfg,
		entityManager:  em,
		particleSystem: systems.NewParticleSystem(em, cfg.Workers),
		lifetimeSystem: systems.NewLifetimeSystem(em),
	}

	reg := operators.NewRegistry()
	query := cfg.GroundQuery()
	for i, inst := range cfg.Effects {
		opts := entities.EffectOptions{
			Services: particles.Services{
				Query:          query,
				DetailScale:    cfg.DetailScale,
				Seed:           cfg.RandomSeed + uint64(i),
				ValidateAccess: cfg.ValidateAccess,
			},
			Loop:        inst.Loop,
			TimeScale:   inst.TimeScale,
			MaxLifetime: inst.MaxLifetime,
		}
		for _, a := range inst.Anchors {
			opts.Anchors = append(opts.Anchors, components.AnchorPoint{
				ControlPoint: a.ControlPoint,
				Frame:        a.Frame(),
				Velocity:     config.Vec3(a.Velocity, mgl64.Vec3{}),
			})
		}
		if hb := inst.HitBoxes; hb != nil {
			spec := &entities.HitBoxSpec{ControlPoint: hb.ControlPoint}
			for _, b := range hb.Boxes {
				spec.Boxes = append(spec.Boxes, b.HitBox())
			}
			opts.HitBoxes = spec
		}

		id, err := entities.CreateEffectByName(em, reg, lib, inst.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create effect %d: %w", i, err)
		}
		s.effects = append(s.effects, id)
	}

	log.Printf("[Simulator] Created %d effects (dt=%.4f, workers=%d)", len(s.effects), cfg.TimeStep, cfg.Workers)
	return s, nil
}

// Step 推进一个时间步
// 单个特效的失败不会中止模拟：该特效被销毁，错误随报告一起返回
func (s *Simulator) Step() (StepReport, error) {
	dt := s.config.TimeStep
	err := s.particleSystem.Update(dt)
	s.lifetimeSystem.Update(dt)
	s.entityManager.RemoveMarkedEntities()
	s.step++

	st := s.particleSystem.Stats()
	return StepReport{
		Step:      s.step,
		Time:      float64(s.step) * dt,
		Effects:   st.Effects,
		Particles: st.Particles,
		Restarted: st.Restarted,
		Destroyed: st.Destroyed,
		Failed:    st.Failed,
	}, err
}

// Run 推进 steps 步，每步调用 report（可为 nil）
// 所有特效都结束后提前返回
func (s *Simulator) Run(steps int, report func(StepReport)) error {
	var errs []error
	for i := 0; i < steps; i++ {
		r, err := s.Step()
		if err != nil {
			errs = append(errs, err)
		}
		if report != nil {
			report(r)
		}
		if s.Alive() == 0 {
			log.Printf("[Simulator] All effects finished after %d steps", s.step)
			break
		}
	}
	return errors.Join(errs...)
}

// Alive 返回仍存在的特效实体数
func (s *Simulator) Alive() int {
	return len(ecs.GetEntitiesWith1[*components.EffectComponent](s.entityManager))
}

// Collection 返回第 i 个配置特效的根集合，已销毁时返回 false
func (s *Simulator) Collection(i int) (*particles.Collection, bool) {
	if i < 0 || i >= len(s.effects) {
		return nil, false
	}
	effect, ok := ecs.GetComponent[*components.EffectComponent](s.entityManager, s.effects[i])
	if !ok {
		return nil, false
	}
	return effect.Collection, true
}
