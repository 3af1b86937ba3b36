package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/operators"
	"github.com/gonewx/particleops/pkg/particles"
)

func TestCPList(t *testing.T) {
	tests := []struct {
		mask uint64
		want string
	}{
		{0, "-"},
		{1, "0"},
		{particles.CP(1, 5, 63), "1,5,63"},
	}
	for _, tt := range tests {
		if got := cpList(tt.mask); got != tt.want {
			t.Errorf("cpList(%#x) = %q, want %q", tt.mask, got, tt.want)
		}
	}
}

func TestPrintDefinition(t *testing.T) {
	lib, err := particle.ParseEffectBytes([]byte(`
effects:
  - name: orbit
    maxParticles: 4
    operators:
      - type: position_lock
        params: { control_point: "3" }
    children:
      - name: orbit_child
        maxParticles: 2
`), "inline")
	if err != nil {
		t.Fatal(err)
	}
	cfg, _ := lib.Find("orbit")
	def, err := particles.Build(operators.NewRegistry(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printDefinition(&buf, def, 0)
	out := buf.String()
	for _, want := range []string{"orbit (max 4, initial 0)", "position_lock", "  orbit_child (max 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
