package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/controlpoint"
)

// AnchorPoint 驱动一个控制点：引擎侧的位置和朝向，每次更新前写入集合
type AnchorPoint struct {
	ControlPoint int
	Frame        controlpoint.Frame

	// Velocity 每秒移动锚点，用于无引擎的离线模拟
	Velocity mgl64.Vec3

	// Teleport 为 true 时下一次写入清除控制点历史，不产生位移增量
	Teleport bool
}

// AnchorComponent 是特效实体的全部锚点
type AnchorComponent struct {
	Points []AnchorPoint
}

// Set 更新（或新增）控制点 cp 的位置，保留原有朝向
func (a *AnchorComponent) Set(cp int, pos mgl64.Vec3) {
	for i := range a.Points {
		if a.Points[i].ControlPoint == cp {
			a.Points[i].Frame.Position = pos
			return
		}
	}
	f := controlpoint.IdentityFrame()
	f.Position = pos
	a.Points = append(a.Points, AnchorPoint{ControlPoint: cp, Frame: f})
}

// Teleport 把控制点 cp 瞬移到 pos
func (a *AnchorComponent) Teleport(cp int, pos mgl64.Vec3) {
	a.Set(cp, pos)
	for i := range a.Points {
		if a.Points[i].ControlPoint == cp {
			a.Points[i].Teleport = true
		}
	}
}
