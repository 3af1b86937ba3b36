package particle

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// TestParseValue_FixedValue tests parsing of fixed value format
func TestParseValue_FixedValue(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMin float64
		wantMax float64
	}{
		{"Integer", "1500", 1500, 1500},
		{"Float", "3.14", 3.14, 3.14},
		{"Negative", "-10.5", -10.5, -10.5},
		{"Zero", "0", 0, 0},
		{"Leading dot", ".25", 0.25, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max, keyframes, interp, err := ParseValue(tt.input)
			if err != nil {
				t.Fatalf("ParseValue(%q) error: %v", tt.input, err)
			}
			if min != tt.wantMin || max != tt.wantMax {
				t.Errorf("ParseValue(%q) = [%v %v], want [%v %v]", tt.input, min, max, tt.wantMin, tt.wantMax)
			}
			if keyframes != nil {
				t.Errorf("ParseValue(%q) keyframes = %v, want nil", tt.input, keyframes)
			}
			if interp != "" {
				t.Errorf("ParseValue(%q) interpolation = %q, want empty", tt.input, interp)
			}
		})
	}
}

// TestParseValue_Range tests parsing of range format
func TestParseValue_Range(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMin float64
		wantMax float64
	}{
		{"Float range", "[0.7 0.9]", 0.7, 0.9},
		{"Integer range", "[10 20]", 10, 20},
		{"Negative range", "[-5 -2]", -5, -2},
		{"Single value", "[4]", 4, 4},
		{"Descending swapped", "[9 3]", 3, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max, keyframes, _, err := ParseValue(tt.input)
			if err != nil {
				t.Fatalf("ParseValue(%q) error: %v", tt.input, err)
			}
			if min != tt.wantMin || max != tt.wantMax {
				t.Errorf("ParseValue(%q) = [%v %v], want [%v %v]", tt.input, min, max, tt.wantMin, tt.wantMax)
			}
			if keyframes != nil {
				t.Errorf("ParseValue(%q) returned keyframes for a range", tt.input)
			}
		})
	}
}

// TestParseValue_Keyframes tests parsing of time,value pairs
func TestParseValue_Keyframes(t *testing.T) {
	_, _, kf, interp, err := ParseValue("EaseIn 0,1 0.5,2 1,0")
	if err != nil {
		t.Fatalf("ParseValue error: %v", err)
	}
	if interp != "EaseIn" {
		t.Errorf("interpolation = %q, want EaseIn", interp)
	}
	want := []Keyframe{{0, 1}, {0.5, 2}, {1, 0}}
	if len(kf) != len(want) {
		t.Fatalf("got %d keyframes, want %d", len(kf), len(want))
	}
	for i := range want {
		if kf[i] != want[i] {
			t.Errorf("keyframe %d = %v, want %v", i, kf[i], want[i])
		}
	}
}

// TestParseValue_Errors tests that malformed values are rejected
func TestParseValue_Errors(t *testing.T) {
	inputs := []string{"", "abc", "[1 2 3]", "[1 2", "0,1 x,2", "1,0 0,1", "NaN", "Inf"}
	for _, in := range inputs {
		if _, _, _, _, err := ParseValue(in); err == nil {
			t.Errorf("ParseValue(%q) expected error", in)
		}
	}
}

func TestParseVectorAndColor(t *testing.T) {
	v, err := ParseVector("0 0 -400")
	if err != nil || v != (mgl64.Vec3{0, 0, -400}) {
		t.Errorf("ParseVector = %v, %v", v, err)
	}
	if _, err := ParseVector("1 2"); err == nil {
		t.Error("ParseVector accepted two components")
	}

	c, err := ParseColor("255 0 51")
	if err != nil {
		t.Fatalf("ParseColor error: %v", err)
	}
	want := mgl64.Vec4{1, 0, 0.2, 1}
	if !c.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("ParseColor = %v, want %v", c, want)
	}
	c, _ = ParseColor("0 0 0 300")
	if c[3] != 1 {
		t.Errorf("alpha channel not clamped: %v", c[3])
	}
}

func TestParseBoolAndInt(t *testing.T) {
	for in, want := range map[string]bool{"1": true, "true": true, "YES": true, "0": false, "false": false} {
		got, err := ParseBool(in)
		if err != nil || got != want {
			t.Errorf("ParseBool(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseBool("maybe"); err == nil {
		t.Error("ParseBool accepted maybe")
	}

	if n, err := ParseInt("3.0"); err != nil || n != 3 {
		t.Errorf("ParseInt(3.0) = %v, %v", n, err)
	}
	if _, err := ParseInt("3.5"); err == nil {
		t.Error("ParseInt accepted 3.5")
	}
}

// TestEvaluateKeyframes tests interpolation at various times
func TestEvaluateKeyframes(t *testing.T) {
	kf := []Keyframe{{0, 0}, {0.5, 10}, {1, 0}}
	tests := []struct {
		name   string
		t      float64
		interp string
		want   float64
	}{
		{"start", 0, "", 0},
		{"quarter linear", 0.25, "Linear", 5},
		{"peak", 0.5, "", 10},
		{"quarter ease in", 0.25, "EaseIn", 2.5},
		{"quarter ease out", 0.25, "EaseOut", 7.5},
		{"quarter spline", 0.25, "FastInOutWeak", 5},
		{"clamped low", -1, "", 0},
		{"clamped high", 2, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateKeyframes(kf, tt.t, tt.interp)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EvaluateKeyframes(%v, %q) = %v, want %v", tt.t, tt.interp, got, tt.want)
			}
		})
	}

	if EvaluateKeyframes(nil, 0.5, "") != 0 {
		t.Error("empty keyframes should evaluate to 0")
	}
	if EvaluateKeyframes([]Keyframe{{0.2, 7}}, 0.9, "") != 7 {
		t.Error("single keyframe should be constant")
	}
}
