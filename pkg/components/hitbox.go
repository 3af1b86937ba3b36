package components

import "github.com/gonewx/particleops/pkg/controlpoint"

// HitBoxComponent 描述挂在某个控制点上的模型碰撞盒
//
// Boxes 在锚点局部空间中定义；系统每次更新按锚点当前变换摆放后
// 交给 Service，供 position_on_hitbox、lock_to_bone、model_cull 使用。
type HitBoxComponent struct {
	ControlPoint int
	Boxes        []controlpoint.HitBox
	Service      *controlpoint.MemoryHitBoxes
}
