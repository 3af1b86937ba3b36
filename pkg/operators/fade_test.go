package operators

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/particles"
)

// fadeEffect is one particle with the given life and initial alpha under a
// single operator.
func fadeEffect(life, alpha string, op particle.UnitConfig) particle.EffectConfig {
	return particle.EffectConfig{
		Name:             op.Type,
		MaxParticles:     1,
		InitialParticles: 1,
		Initializers: units(
			unit("lifetime_random", "min", life, "max", life),
			unit("alpha_random", "min", alpha, "max", alpha),
		),
		Operators: units(op),
	}
}

func TestFadeInRandom(t *testing.T) {
	tests := []struct {
		name string
		life string
		op   particle.UnitConfig
		dt   float64
		want []float64 // alpha after each step
	}{
		{
			name: "proportional",
			life: "1",
			op:   unit("fade_in_random"),
			dt:   0.125,
			// age 0.125 是淡入时间 0.25 的一半，SimpleSpline(0.5) = 0.5
			want: []float64{0.4, 0.8, 0.8},
		},
		{
			name: "seconds",
			life: "10",
			op:   unit("fade_in_random", "fade_in_time_min", "0.5", "fade_in_time_max", "0.5", "proportional", "0"),
			dt:   0.25,
			want: []float64{0.4, 0.8, 0.8},
		},
		{
			name: "spline shape",
			life: "1",
			op:   unit("fade_in_random"),
			dt:   0.0625,
			// SimpleSpline(0.25) = 0.15625
			want: []float64{0.8 * 0.15625, 0.4, 0.8 * 0.84375, 0.8},
		},
		{
			name: "zero fade time leaves alpha",
			life: "1",
			op:   unit("fade_in_random", "fade_in_time_min", "0", "fade_in_time_max", "0"),
			dt:   0.125,
			want: []float64{0.8, 0.8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollection(t, fadeEffect(tt.life, "0.8", tt.op), particles.Services{})
			for i, w := range tt.want {
				step(c, 1, tt.dt)
				if got := c.Store().Floats(attribute.Alpha)[0]; math.Abs(got-w) > eps {
					t.Errorf("step %d alpha = %v, want %v", i+1, got, w)
				}
			}
		})
	}
}

func TestFadeOutRandom(t *testing.T) {
	tests := []struct {
		name  string
		op    particle.UnitConfig
		steps int
		want  float64
	}{
		{"before the fade", unit("fade_out_random"), 12, 0.8},
		// age 0.8125：淡出区间 [0.75, 1] 的四分之一
		{"eased quarter", unit("fade_out_random"), 13, 0.8 * (1 - 0.15625)},
		{"linear quarter", unit("fade_out_random", "ease_in_and_out", "0"), 13, 0.6},
		{"end of life", unit("fade_out_random"), 16, 0},
		{
			"seconds",
			unit("fade_out_random", "fade_out_time_min", "0.5", "fade_out_time_max", "0.5", "proportional", "0", "ease_in_and_out", "0"),
			14, // age 0.875, 0.375 s into a 0.5 s fade
			0.2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollection(t, fadeEffect("1", "0.8", tt.op), particles.Services{})
			step(c, tt.steps, 0.0625)
			if got := c.Store().Floats(attribute.Alpha)[0]; math.Abs(got-tt.want) > eps {
				t.Errorf("alpha after %d steps = %v, want %v", tt.steps, got, tt.want)
			}
		})
	}
}

func TestColorInterpolate(t *testing.T) {
	tests := []struct {
		name  string
		op    particle.UnitConfig
		steps int
		want  float64 // every channel
	}{
		{"before the window", unit("color_interpolate", "color_fade", "0 0 0", "fade_start_time", "0.5"), 1, 1},
		{"window start", unit("color_interpolate", "color_fade", "0 0 0", "fade_start_time", "0.5"), 2, 1},
		{"half way", unit("color_interpolate", "color_fade", "0 0 0", "fade_start_time", "0.5"), 3, 0.5},
		{"held after the window", unit("color_interpolate", "color_fade", "0 0 0", "fade_end_time", "0.5"), 4, 0},
		{"eased", unit("color_interpolate", "color_fade", "0 0 0", "ease_in_out", "1"), 1, 1 - 0.15625},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fadeEffect("1", "1", tt.op)
			cfg.MaxParticles = 6
			cfg.InitialParticles = 6
			c := newCollection(t, cfg, particles.Services{})
			step(c, tt.steps, 0.25)
			for i, tint := range c.Store().Vecs(attribute.Tint)[:6] {
				if tint.Sub(mgl64.Vec3{tt.want, tt.want, tt.want}).Len() > eps {
					t.Errorf("particle %d tint = %v, want %v", i, tint, tt.want)
				}
			}
		})
	}
}

func TestSpin(t *testing.T) {
	quarter := mgl64.DegToRad(90) * 0.25
	tests := []struct {
		name      string
		params    []string
		randomDir bool
		steps     int
		want      float64 // magnitude of rotation
	}{
		{"constant rate", []string{"spin_rate_degrees", "90"}, false, 2, 2 * quarter},
		{"stops at spin_stop_time", []string{"spin_rate_degrees", "90", "spin_stop_time", "0.5"}, false, 4, quarter},
		{"random direction keeps magnitude", []string{"spin_rate_degrees", "90", "random_direction", "1"}, true, 2, 2 * quarter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollection(t, particle.EffectConfig{
				Name:             "spin",
				MaxParticles:     8,
				InitialParticles: 8,
				Operators:        units(unit("spin", tt.params...)),
			}, particles.Services{})
			step(c, tt.steps, 0.25)

			st := c.Store()
			rot := st.Floats(attribute.Rotation)
			ids := st.Ints(attribute.ParticleID)
			for i := 0; i < c.ActiveCount(); i++ {
				want := tt.want
				if tt.randomDir && particles.RandomByID(ids[i], offsetSpin) < 0.5 {
					want = -want
				}
				if math.Abs(rot[i]-want) > eps {
					t.Errorf("particle %d rotation = %v, want %v", ids[i], rot[i], want)
				}
			}
		})
	}
}

func TestScalarKeyframes(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		want   []float64 // radius at ages 0.25, 0.5, 0.75, 1
	}{
		{"scaled by initial", nil, []float64{4, 6, 7, 8}},
		{"absolute", []string{"scale_initial", "0"}, []float64{2, 3, 3.5, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := append([]string{"output_field", "radius", "curve", "0,1 0.5,3 1,4"}, tt.params...)
			c := newCollection(t, particle.EffectConfig{
				Name:             "keyframes",
				MaxParticles:     1,
				InitialParticles: 1,
				Initializers: units(
					unit("lifetime_random", "min", "1", "max", "1"),
					unit("radius_random", "min", "2", "max", "2"),
				),
				Operators: units(unit("scalar_keyframes", params...)),
			}, particles.Services{})
			for i, w := range tt.want {
				step(c, 1, 0.25)
				if got := c.Store().Floats(attribute.Radius)[0]; math.Abs(got-w) > eps {
					t.Errorf("age %v radius = %v, want %v", 0.25*float64(i+1), got, w)
				}
			}
		})
	}
}
