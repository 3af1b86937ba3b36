// Package components 定义特效实体上挂载的纯数据组件
//
// 组件只保存数据，逻辑全部在 systems 包中。
package components

import "github.com/gonewx/particleops/pkg/particles"

// EffectComponent 把一棵粒子集合树挂到实体上
type EffectComponent struct {
	// Name 是特效定义名，用于日志
	Name string

	// Collection 是根集合，子集合由它驱动
	Collection *particles.Collection

	// Loop 为 true 时，特效结束后重启而不是被销毁
	Loop bool

	// Paused 的特效不推进时间，锚点也不写入
	Paused bool

	// TimeScale 缩放每次更新的 dt，0 视为 1
	TimeScale float64

	// Restarts 记录循环重启的次数
	Restarts int
}

// ScaledDt 返回本次更新应推进的时间
func (e *EffectComponent) ScaledDt(dt float64) float64 {
	if e.TimeScale <= 0 {
		return dt
	}
	return dt * e.TimeScale
}
