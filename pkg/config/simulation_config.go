// Package config 加载无头模拟器的 YAML 配置
package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/particles"
)

// SimulationConfig 模拟配置
//
// 配置文件位置: data/simulation.yaml
type SimulationConfig struct {
	// TimeStep 每步的秒数，默认 1/60
	TimeStep float64 `yaml:"timeStep"`

	// Steps 模拟步数
	Steps int `yaml:"steps"`

	// Workers 并发推进特效的上限，0 表示 GOMAXPROCS
	Workers int `yaml:"workers"`

	// ValidateAccess 打开属性访问校验（调试用）
	ValidateAccess bool `yaml:"validateAccess"`

	// DetailScale 全局细节等级，缩放剔除比例，范围 [0, 1]
	DetailScale float64 `yaml:"detailScale"`

	// RandomSeed 随机种子，每个特效实例在此基础上偏移
	RandomSeed uint64 `yaml:"randomSeed"`

	// MaxParticlesOverride > 0 时替换每个集合的 maxParticles
	MaxParticlesOverride int `yaml:"maxParticlesOverride"`

	// Ground 地面查询服务
	Ground GroundConfig `yaml:"ground"`

	// Effects 要实例化的特效
	Effects []EffectInstanceConfig `yaml:"effects"`
}

// GroundConfig 水平地面：world_trace_constraint 在 z = Height 处碰撞
type GroundConfig struct {
	Enabled bool      `yaml:"enabled"`
	Height  float64   `yaml:"height"`
	Ambient []float64 `yaml:"ambient,omitempty"`
}

// EffectInstanceConfig 一个特效实例
type EffectInstanceConfig struct {
	Name        string         `yaml:"name"`
	Loop        bool           `yaml:"loop,omitempty"`
	MaxLifetime float64        `yaml:"maxLifetime,omitempty"`
	TimeScale   float64        `yaml:"timeScale,omitempty"`
	Anchors     []AnchorConfig `yaml:"anchors,omitempty"`
	HitBoxes    *HitBoxConfig  `yaml:"hitBoxes,omitempty"`
}

// AnchorConfig 驱动一个控制点
type AnchorConfig struct {
	ControlPoint int       `yaml:"controlPoint"`
	Position     []float64 `yaml:"position,omitempty"`
	Forward      []float64 `yaml:"forward,omitempty"`
	Velocity     []float64 `yaml:"velocity,omitempty"`
}

// HitBoxConfig 挂在控制点上的轴对齐碰撞盒（锚点局部空间）
type HitBoxConfig struct {
	ControlPoint int         `yaml:"controlPoint"`
	Boxes        []BoxConfig `yaml:"boxes"`
}

// BoxConfig 一个盒子的最小角和最大角
type BoxConfig struct {
	Min []float64 `yaml:"min"`
	Max []float64 `yaml:"max"`
}

// DefaultSimulationConfig 返回默认配置
func DefaultSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		TimeStep:    1.0 / 60,
		Steps:       120,
		DetailScale: 1,
	}
}

// LoadSimulationConfig 从文件加载模拟配置
//
// 参数:
//   - path: 配置文件路径（如 "data/simulation.yaml"）
//
// 返回:
//   - *SimulationConfig: 加载并校验后的配置
//   - error: 读取、解析或校验失败时返回错误
func LoadSimulationConfig(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulation config: %w", err)
	}
	return ParseSimulationConfig(data)
}

// ParseSimulationConfig 解析 YAML 内容，缺省字段使用默认值
func ParseSimulationConfig(data []byte) (*SimulationConfig, error) {
	config := DefaultSimulationConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	return config, nil
}

// Validate 验证配置有效性
func (c *SimulationConfig) Validate() error {
	if !(c.TimeStep > 0) {
		return fmt.Errorf("timeStep must be positive, got %v", c.TimeStep)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", c.Steps)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.DetailScale < 0 || c.DetailScale > 1 {
		return fmt.Errorf("detailScale must be in [0, 1], got %v", c.DetailScale)
	}
	if c.MaxParticlesOverride < 0 {
		return fmt.Errorf("maxParticlesOverride must not be negative, got %d", c.MaxParticlesOverride)
	}
	if err := checkVec("ground.ambient", c.Ground.Ambient); err != nil {
		return err
	}

	for i, e := range c.Effects {
		if e.Name == "" {
			return fmt.Errorf("effects[%d]: name is required", i)
		}
		if e.MaxLifetime < 0 || e.TimeScale < 0 {
			return fmt.Errorf("effect %s: maxLifetime and timeScale must not be negative", e.Name)
		}
		for j, a := range e.Anchors {
			field := fmt.Sprintf("effect %s anchors[%d]", e.Name, j)
			if a.ControlPoint < 0 || a.ControlPoint >= 64 {
				return fmt.Errorf("%s: controlPoint %d out of range [0, 64)", field, a.ControlPoint)
			}
			for name, v := range map[string][]float64{"position": a.Position, "forward": a.Forward, "velocity": a.Velocity} {
				if err := checkVec(field+"."+name, v); err != nil {
					return err
				}
			}
		}
		if hb := e.HitBoxes; hb != nil {
			if hb.ControlPoint < 0 || hb.ControlPoint >= 64 {
				return fmt.Errorf("effect %s hitBoxes: controlPoint %d out of range [0, 64)", e.Name, hb.ControlPoint)
			}
			for j, b := range hb.Boxes {
				if len(b.Min) != 3 || len(b.Max) != 3 {
					return fmt.Errorf("effect %s hitBoxes.boxes[%d]: min and max need 3 components", e.Name, j)
				}
			}
		}
	}
	return nil
}

// checkVec 允许省略（空），否则必须是 3 个分量
func checkVec(field string, v []float64) error {
	if len(v) != 0 && len(v) != 3 {
		return fmt.Errorf("%s must have 3 components, got %d", field, len(v))
	}
	return nil
}

// Vec3 把配置中的三元组转为向量，空值返回 def
func Vec3(v []float64, def mgl64.Vec3) mgl64.Vec3 {
	if len(v) != 3 {
		return def
	}
	return mgl64.Vec3{v[0], v[1], v[2]}
}

// ApplyOverrides 把全局覆盖项写入特效定义树（原地修改）
func (c *SimulationConfig) ApplyOverrides(effect *particle.EffectConfig) {
	if c.MaxParticlesOverride <= 0 {
		return
	}
	effect.MaxParticles = c.MaxParticlesOverride
	if effect.InitialParticles > effect.MaxParticles {
		effect.InitialParticles = effect.MaxParticles
	}
	for i := range effect.Children {
		c.ApplyOverrides(&effect.Children[i])
	}
}

// Frame 返回锚点的初始坐标系：position 为原点，forward 为前方，+Z 作为参考上方
// forward 为空或与 Z 轴平行时退化为默认朝向
func (a AnchorConfig) Frame() controlpoint.Frame {
	f := controlpoint.IdentityFrame()
	f.Position = Vec3(a.Position, mgl64.Vec3{})

	forward, ok := controlpoint.SafeNormalize(Vec3(a.Forward, f.Forward))
	if !ok {
		return f
	}
	right, ok := controlpoint.SafeNormalize(forward.Cross(mgl64.Vec3{0, 0, 1}))
	if !ok {
		return f
	}
	f.Forward = forward
	f.Right = right
	f.Up = right.Cross(forward)
	return f
}

// HitBox 返回锚点局部空间中的碰撞盒（单位变换）
func (b BoxConfig) HitBox() controlpoint.HitBox {
	return controlpoint.HitBox{
		Transform: mgl64.Ident4(),
		Min:       Vec3(b.Min, mgl64.Vec3{}),
		Max:       Vec3(b.Max, mgl64.Vec3{}),
	}
}

// GroundQuery 返回地面配置对应的查询服务，未启用时返回 nil
func (c *SimulationConfig) GroundQuery() particles.QueryService {
	if !c.Ground.Enabled {
		return nil
	}
	return particles.GroundPlaneQuery{
		Height:  c.Ground.Height,
		Ambient: Vec3(c.Ground.Ambient, mgl64.Vec3{}),
	}
}
