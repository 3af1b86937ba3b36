// Package entities 提供特效实体的工厂函数
package entities

import (
	"fmt"
	"log"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/components"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/ecs"
	"github.com/gonewx/particleops/pkg/particles"
)

// HitBoxSpec 给特效挂一个模型碰撞盒集合
type HitBoxSpec struct {
	ControlPoint int
	Boxes        []controlpoint.HitBox
}

// EffectOptions 描述特效实体除定义以外的部分
type EffectOptions struct {
	Services  particles.Services
	Loop      bool
	TimeScale float64

	// MaxLifetime > 0 时挂 LifetimeComponent，到时销毁特效
	MaxLifetime float64

	Anchors  []components.AnchorPoint
	HitBoxes *HitBoxSpec
}

// CreateEffect 用已构建的定义创建特效实体
//
// 锚点在创建时立即写入集合，第一步模拟看到的就是正确的控制点。
// 指定 HitBoxes 而 Services 没有碰撞盒服务时，为该特效创建一个 MemoryHitBoxes。
//
// 返回:
//   - ecs.EntityID: 创建的实体 ID，失败返回 0
//   - error: 参数无效时返回错误
func CreateEffect(em *ecs.EntityManager, def *particles.Definition, opts EffectOptions) (ecs.EntityID, error) {
	if em == nil {
		return 0, fmt.Errorf("entity manager cannot be nil")
	}
	if def == nil {
		return 0, fmt.Errorf("effect definition cannot be nil")
	}

	services := opts.Services
	var hitBoxes *components.HitBoxComponent
	if opts.HitBoxes != nil {
		mem, ok := services.HitBoxes.(*controlpoint.MemoryHitBoxes)
		switch {
		case services.HitBoxes == nil:
			mem = controlpoint.NewMemoryHitBoxes()
			services.HitBoxes = mem
		case !ok:
			return 0, fmt.Errorf("effect %s: hit-boxes need a MemoryHitBoxes service, got %T", def.Name, services.HitBoxes)
		}
		hitBoxes = &components.HitBoxComponent{
			ControlPoint: opts.HitBoxes.ControlPoint,
			Boxes:        opts.HitBoxes.Boxes,
			Service:      mem,
		}
	}

	collection := particles.NewCollection(def, services)
	for _, a := range opts.Anchors {
		collection.SetControlPointFrame(a.ControlPoint, a.Frame)
	}

	id := em.CreateEntity()
	em.AddComponent(id, &components.EffectComponent{
		Name:       def.Name,
		Collection: collection,
		Loop:       opts.Loop,
		TimeScale:  opts.TimeScale,
	})
	if len(opts.Anchors) > 0 {
		em.AddComponent(id, &components.AnchorComponent{
			Points: append([]components.AnchorPoint(nil), opts.Anchors...),
		})
	}
	if hitBoxes != nil {
		em.AddComponent(id, hitBoxes)
	}
	if opts.MaxLifetime > 0 {
		em.AddComponent(id, &components.LifetimeComponent{MaxLifetime: opts.MaxLifetime})
	}

	log.Printf("[EffectFactory] Created effect %s (entity %d, max %d particles)", def.Name, id, def.MaxParticles)
	return id, nil
}

// CreateEffectByName 从特效库中按名字构建定义并创建实体
func CreateEffectByName(em *ecs.EntityManager, reg *particles.Registry, lib *particle.EffectLibrary, name string, opts EffectOptions) (ecs.EntityID, error) {
	if lib == nil {
		return 0, fmt.Errorf("effect library cannot be nil")
	}
	cfg, ok := lib.Find(name)
	if !ok {
		return 0, fmt.Errorf("effect %q not found", name)
	}
	def, err := particles.Build(reg, cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to build effect %s: %w", name, err)
	}
	return CreateEffect(em, def, opts)
}
