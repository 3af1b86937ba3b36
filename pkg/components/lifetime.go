package components

// LifetimeComponent 限制特效实体的存在时间
// 用于自动清理循环特效或长尾特效；过期后实体被销毁，无论粒子是否还在
type LifetimeComponent struct {
	MaxLifetime     float64 // 最大存在时间(秒)
	CurrentLifetime float64 // 当前已存在时间(秒)
	IsExpired       bool    // 是否已过期
}

// Advance 推进计时并返回是否过期
func (l *LifetimeComponent) Advance(dt float64) bool {
	l.CurrentLifetime += dt
	if l.MaxLifetime > 0 && l.CurrentLifetime >= l.MaxLifetime {
		l.IsExpired = true
	}
	return l.IsExpired
}
