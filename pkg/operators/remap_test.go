package operators

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/particles"
)

func TestRemapDotProductToScalar(t *testing.T) {
	up := mgl64.Vec3{0, 0, 1}
	tests := []struct {
		name    string
		forward mgl64.Vec3 // forward of control point 1
		gravity string     // non-empty moves particles before the remap
		params  []string
		want    float64
	}{
		{"aligned", mgl64.Vec3{1, 0, 0}, "", nil, 1},
		{"perpendicular", mgl64.Vec3{0, 1, 0}, "", nil, 0.5},
		{"opposite", mgl64.Vec3{-1, 0, 0}, "", nil, 0},
		{"scaled by initial", mgl64.Vec3{1, 0, 0}, "", []string{"scale_initial", "1"}, 0.3},
		{"velocity along forward", mgl64.Vec3{-1, 0, 0}, "100 0 0", []string{"use_particle_velocity", "1"}, 1},
		{"velocity sideways", mgl64.Vec3{-1, 0, 0}, "0 100 0", []string{"use_particle_velocity", "1"}, 0.5},
		{"velocity backwards", mgl64.Vec3{1, 0, 0}, "-100 0 0", []string{"use_particle_velocity", "1"}, 0},
		// 静止粒子没有方向，保持初始值
		{"resting particle untouched", mgl64.Vec3{1, 0, 0}, "0 0 0", []string{"use_particle_velocity", "1"}, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ops []particle.UnitConfig
			if tt.gravity != "" {
				ops = append(ops, unit("basic_movement", "gravity", tt.gravity))
			}
			params := append([]string{"input_cp1", "0", "input_cp2", "1", "output_field", "alpha"}, tt.params...)
			ops = append(ops, unit("remap_dot_product_to_scalar", params...))

			c := newCollection(t, particle.EffectConfig{
				Name:             "dot",
				MaxParticles:     5,
				InitialParticles: 5,
				Initializers:     units(unit("alpha_random", "min", "0.3", "max", "0.3")),
				Operators:        ops,
			}, particles.Services{})
			c.SetControlPointOrientation(1, tt.forward, tt.forward.Cross(up), up)
			step(c, 1, 0.1)

			for i, a := range c.Store().Floats(attribute.Alpha)[:5] {
				if math.Abs(a-tt.want) > eps {
					t.Errorf("particle %d alpha = %v, want %v", i, a, tt.want)
				}
			}
		})
	}
}

func TestDistanceBetweenCPs(t *testing.T) {
	tests := []struct {
		name   string
		end    mgl64.Vec3
		params []string
		want   float64
	}{
		{"half way", mgl64.Vec3{50, 0, 0}, nil, 0.5},
		{"clamped above", mgl64.Vec3{0, 200, 0}, nil, 1},
		{"coincident", mgl64.Vec3{}, nil, 0},
		{"scaled by initial", mgl64.Vec3{0, 0, 50}, []string{"scale_initial", "1"}, 1},
		{"inverted output", mgl64.Vec3{25, 0, 0}, []string{"output_min", "1", "output_max", "0"}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := append([]string{"input_min", "0", "input_max", "100"}, tt.params...)
			c := newCollection(t, particle.EffectConfig{
				Name:             "between",
				MaxParticles:     6,
				InitialParticles: 6,
				Initializers:     units(unit("radius_random", "min", "2", "max", "2")),
				Operators:        units(unit("distance_between_cps", params...)),
			}, particles.Services{})
			c.SetControlPoint(1, tt.end)
			step(c, 1, 0.1)

			for i, r := range c.Store().Floats(attribute.Radius)[:6] {
				if math.Abs(r-tt.want) > eps {
					t.Errorf("particle %d radius = %v, want %v", i, r, tt.want)
				}
			}
		})
	}
}
