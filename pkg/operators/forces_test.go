package operators

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
	"github.com/gonewx/particleops/pkg/particles"
)

// forceDisplacement runs one 0.1 s step of a resting particle spawned on
// control point 1 and returns how far it moved. With Verlet integration that
// is acceleration * dt^2.
func forceDisplacement(t *testing.T, force particle.UnitConfig, cp1 mgl64.Vec3, setup func(*particles.Collection)) mgl64.Vec3 {
	t.Helper()
	c := newCollection(t, particle.EffectConfig{
		Name:             force.Type,
		MaxParticles:     1,
		InitialParticles: 1,
		Initializers:     units(unit("position_within_sphere", "control_point", "1")),
		Operators:        units(unit("basic_movement")),
		Forces:           units(force),
	}, particles.Services{})
	c.SetControlPoint(1, cp1)
	if setup != nil {
		setup(c)
	}
	step(c, 1, 0.1)
	return c.Store().Vecs(attribute.XYZ)[0].Sub(cp1)
}

func TestRandomForce(t *testing.T) {
	got := forceDisplacement(t, unit("random_force", "min_force", "10 0 -20", "max_force", "10 0 -20"), mgl64.Vec3{}, nil)
	if got.Sub(mgl64.Vec3{0.1, 0, -0.2}).Len() > eps {
		t.Errorf("fixed random force moved %v, want (0.1, 0, -0.2)", got)
	}

	got = forceDisplacement(t, unit("random_force", "min_force", "-10 -10 -10", "max_force", "10 10 10"), mgl64.Vec3{}, nil)
	for i := 0; i < 3; i++ {
		if got[i] < -0.1-eps || got[i] > 0.1+eps {
			t.Errorf("random force component %d moved %v, want within ±0.1", i, got[i])
		}
	}
}

func TestAttractToCP(t *testing.T) {
	// 粒子从 (-10, 0, 0) 出发，被吸向原点的控制点 0
	start := mgl64.Vec3{-10, 0, 0}
	tests := []struct {
		name   string
		params []string
		start  mgl64.Vec3
		want   mgl64.Vec3
	}{
		{"no falloff", []string{"amount", "50", "falloff_power", "0"}, start, mgl64.Vec3{0.5, 0, 0}},
		{"linear falloff", []string{"amount", "50", "falloff_power", "1"}, start, mgl64.Vec3{0.05, 0, 0}},
		{"default square falloff", []string{"amount", "50"}, start, mgl64.Vec3{0.005, 0, 0}},
		{"falloff distance floored at one", []string{"amount", "50", "falloff_power", "2"}, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{0, -0.5, 0}},
		{"negative amount repels", []string{"amount", "-50", "falloff_power", "0"}, start, mgl64.Vec3{-0.5, 0, 0}},
		{"particle on the control point", []string{"amount", "50"}, mgl64.Vec3{}, mgl64.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := forceDisplacement(t, unit("attract_to_cp", tt.params...), tt.start, nil)
			if got.Sub(tt.want).Len() > eps {
				t.Errorf("moved %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTwistAroundAxis(t *testing.T) {
	// 控制点 0 的局部 z 轴指向世界 -x
	tilted := func(c *particles.Collection) {
		c.SetControlPointFrame(0, controlpoint.Frame{
			Forward: mgl64.Vec3{0, 0, 1},
			Right:   mgl64.Vec3{0, -1, 0},
			Up:      mgl64.Vec3{-1, 0, 0},
		})
	}
	tests := []struct {
		name   string
		params []string
		start  mgl64.Vec3
		setup  func(*particles.Collection)
		want   mgl64.Vec3
	}{
		{"counter-clockwise about z", []string{"amount", "20"}, mgl64.Vec3{10, 0, 0}, nil, mgl64.Vec3{0, 0.2, 0}},
		{"negative amount reverses", []string{"amount", "-20"}, mgl64.Vec3{10, 0, 0}, nil, mgl64.Vec3{0, -0.2, 0}},
		{"independent of radius", []string{"amount", "20"}, mgl64.Vec3{0, 50, 0}, nil, mgl64.Vec3{-0.2, 0, 0}},
		{"on the axis", []string{"amount", "20"}, mgl64.Vec3{0, 0, 5}, nil, mgl64.Vec3{}},
		{"world axis ignores orientation", []string{"amount", "20"}, mgl64.Vec3{0, 10, 0}, tilted, mgl64.Vec3{-0.2, 0, 0}},
		{"local axis follows orientation", []string{"amount", "20", "local_space", "1"}, mgl64.Vec3{0, 10, 0}, tilted, mgl64.Vec3{0, 0, -0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := forceDisplacement(t, unit("twist_around_axis", tt.params...), tt.start, tt.setup)
			if got.Sub(tt.want).Len() > eps {
				t.Errorf("moved %v, want %v", got, tt.want)
			}
		})
	}
}
