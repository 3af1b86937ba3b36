package systems

import (
	"log"

	"github.com/gonewx/particleops/pkg/components"
	"github.com/gonewx/particleops/pkg/ecs"
)

// LifetimeSystem 销毁超过存在时间上限的特效实体
type LifetimeSystem struct {
	entityManager *ecs.EntityManager
}

// NewLifetimeSystem 创建一个新的生命周期系统
func NewLifetimeSystem(em *ecs.EntityManager) *LifetimeSystem {
	return &LifetimeSystem{
		entityManager: em,
	}
}

// Update 推进所有 LifetimeComponent 的计时，过期的实体标记待删除
// 暂停的特效不计时
func (s *LifetimeSystem) Update(deltaTime float64) {
	entities := ecs.GetEntitiesWith1[*components.LifetimeComponent](s.entityManager)

	for _, id := range entities {
		lifetime, ok := ecs.GetComponent[*components.LifetimeComponent](s.entityManager, id)
		if !ok {
			continue
		}
		if effect, ok := ecs.GetComponent[*components.EffectComponent](s.entityManager, id); ok && effect.Paused {
			continue
		}

		if lifetime.Advance(deltaTime) && !s.entityManager.IsMarkedForDestroy(id) {
			log.Printf("[LifetimeSystem] Entity %d expired after %.2fs", id, lifetime.CurrentLifetime)
			s.entityManager.DestroyEntity(id)
		}
	}
}
