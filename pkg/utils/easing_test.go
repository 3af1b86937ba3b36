package utils

import (
	"math"
	"testing"
)

// TestSimpleSpline 测试三次缓入缓出函数
func TestSimpleSpline(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"起点", 0.0, 0.0},
		{"中点", 0.5, 0.5},
		{"终点", 1.0, 1.0},
		{"四分之一", 0.25, 0.15625}, // 3*0.0625 - 2*0.015625
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SimpleSpline(tt.input)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("SimpleSpline(%v) = %v, 期望 %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestBias(t *testing.T) {
	if got := Bias(0.3, 0.5); got != 0.3 {
		t.Errorf("Bias(0.3, 0.5) = %v, want linear 0.3", got)
	}
	if got := Bias(0.5, 0.75); got <= 0.5 {
		t.Errorf("Bias(0.5, 0.75) = %v, want > 0.5", got)
	}
	if got := Bias(0.5, 0.25); got >= 0.5 {
		t.Errorf("Bias(0.5, 0.25) = %v, want < 0.5", got)
	}
	if got := Bias(1, 0.2); math.Abs(got-1) > 1e-12 {
		t.Errorf("Bias(1, 0.2) = %v, want 1", got)
	}
}

func TestGainSymmetric(t *testing.T) {
	for _, x := range []float64{0.1, 0.2, 0.4} {
		a := Gain(x, 0.7)
		b := Gain(1-x, 0.7)
		if math.Abs(a+b-1) > 1e-9 {
			t.Errorf("Gain(%v)+Gain(%v) = %v, want 1", x, 1-x, a+b)
		}
	}
}

func TestRemapValClamped(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		expected float64
	}{
		{"below", -5, 10},
		{"start", 0, 10},
		{"middle", 50, 15},
		{"end", 100, 20},
		{"above", 200, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemapValClamped(tt.v, 0, 100, 10, 20)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("RemapValClamped(%v) = %v, want %v", tt.v, got, tt.expected)
			}
		})
	}
}

func TestRemapDegenerateRange(t *testing.T) {
	if got := RemapValClamped(1, 1, 1, 0, 5); got != 5 {
		t.Errorf("degenerate range at end = %v, want 5", got)
	}
	if got := RemapValClamped(0, 1, 1, 0, 5); got != 0 {
		t.Errorf("degenerate range before end = %v, want 0", got)
	}
	if got := SimpleSplineRemapValClamped(0.5, 0, 1, 2, 4); math.Abs(got-3) > 1e-9 {
		t.Errorf("SimpleSplineRemapValClamped midpoint = %v, want 3", got)
	}
}

func TestExponentialDecay(t *testing.T) {
	// 每 1/30 秒保留 0.5，经过 1/30 秒应为 0.5
	if got := ExponentialDecay(0.5, 1.0/30, 1.0/30); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("ExponentialDecay one period = %v, want 0.5", got)
	}
	if got := ExponentialDecay(0.5, 1.0/30, 2.0/30); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("ExponentialDecay two periods = %v, want 0.25", got)
	}
	if got := ExponentialDecay(1, 1.0/30, 5); got != 1 {
		t.Errorf("ExponentialDecay(1) = %v, want 1", got)
	}
	if got := ExponentialDecay(0, 1.0/30, 0.1); got != 0 {
		t.Errorf("ExponentialDecay(0) = %v, want 0", got)
	}
}
