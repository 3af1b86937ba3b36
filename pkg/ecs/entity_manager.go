// Package ecs 是一个极简的实体-组件存储
//
// 特效在引擎侧以实体表示：一个实体挂一个 EffectComponent（粒子集合），
// 以及可选的锚点、碰撞盒组件。系统通过查询组件组合来驱动它们。
package ecs

import (
	"reflect"
	"slices"
)

// EntityID 是实体的唯一标识符，0 保留为无效 ID
type EntityID uint64

// EntityManager 管理所有实体和组件
//
// 每个实体每种组件类型最多一个实例。销毁是延迟的：DestroyEntity 只做标记，
// RemoveMarkedEntities 在一次更新结束时统一清理，遍历查询结果时销毁实体是安全的。
type EntityManager struct {
	nextID uint64
	// EntityID -> 组件类型 -> 组件实例
	components map[EntityID]map[reflect.Type]any
	// 待删除的实体，去重
	pending map[EntityID]struct{}
}

// NewEntityManager 创建一个新的 EntityManager 实例
func NewEntityManager() *EntityManager {
	return &EntityManager{
		nextID:     1,
		components: make(map[EntityID]map[reflect.Type]any),
		pending:    make(map[EntityID]struct{}),
	}
}

// CreateEntity 创建新实体并返回唯一 ID
func (em *EntityManager) CreateEntity() EntityID {
	id := EntityID(em.nextID)
	em.nextID++
	em.components[id] = make(map[reflect.Type]any)
	return id
}

// IsAlive 报告实体是否存在（已标记但未清理的实体仍算存在）
func (em *EntityManager) IsAlive(id EntityID) bool {
	_, ok := em.components[id]
	return ok
}

// DestroyEntity 标记实体待删除，不存在的实体忽略
func (em *EntityManager) DestroyEntity(id EntityID) {
	if _, ok := em.components[id]; ok {
		em.pending[id] = struct{}{}
	}
}

// IsMarkedForDestroy 报告实体是否已被标记
func (em *EntityManager) IsMarkedForDestroy(id EntityID) bool {
	_, ok := em.pending[id]
	return ok
}

// AddComponent 为实体添加组件，同类型的旧组件被替换
// 返回 false 表示实体不存在
func (em *EntityManager) AddComponent(id EntityID, component any) bool {
	compMap, exists := em.components[id]
	if !exists || component == nil {
		return false
	}
	compMap[reflect.TypeOf(component)] = component
	return true
}

// RemoveComponent 从实体移除指定类型的组件
func (em *EntityManager) RemoveComponent(id EntityID, componentType reflect.Type) {
	if compMap, exists := em.components[id]; exists {
		delete(compMap, componentType)
	}
}

// GetComponent 获取实体的特定类型组件
func (em *EntityManager) GetComponent(id EntityID, componentType reflect.Type) (any, bool) {
	if compMap, exists := em.components[id]; exists {
		comp, found := compMap[componentType]
		return comp, found
	}
	return nil, false
}

// HasComponent 检查实体是否拥有特定类型组件
func (em *EntityManager) HasComponent(id EntityID, componentType reflect.Type) bool {
	_, found := em.GetComponent(id, componentType)
	return found
}

// RemoveMarkedEntities 清理所有标记删除的实体，返回清理数量
func (em *EntityManager) RemoveMarkedEntities() int {
	n := len(em.pending)
	for id := range em.pending {
		delete(em.components, id)
	}
	clear(em.pending)
	return n
}

// EntityCount 返回当前实体数量
func (em *EntityManager) EntityCount() int {
	return len(em.components)
}

// GetEntitiesWith 查询拥有全部指定组件类型的实体
// 结果按 ID 升序，保证系统的处理顺序是确定的
func (em *EntityManager) GetEntitiesWith(componentTypes ...reflect.Type) []EntityID {
	result := make([]EntityID, 0)
	for id, compMap := range em.components {
		hasAll := true
		for _, ct := range componentTypes {
			if _, found := compMap[ct]; !found {
				hasAll = false
				break
			}
		}
		if hasAll {
			result = append(result, id)
		}
	}
	slices.Sort(result)
	return result
}
