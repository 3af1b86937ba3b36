package lane

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPaddedCount(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"zero", 0, 0},
		{"negative", -3, 0},
		{"one", 1, 4},
		{"exact", 4, 4},
		{"five", 5, 8},
		{"large", 1023, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PaddedCount(tt.n)
			if got != tt.want {
				t.Errorf("PaddedCount(%d) = %d, want %d", tt.n, got, tt.want)
			}
			if got%Width != 0 {
				t.Errorf("PaddedCount(%d) = %d is not a multiple of %d", tt.n, got, Width)
			}
		})
	}

	if Batches(9) != 3 {
		t.Errorf("Batches(9) = %d, want 3", Batches(9))
	}
}

func TestDivMasksZeroDenominator(t *testing.T) {
	a := F4{1, 2, 3, 4}
	b := F4{2, 0, 3, 0}
	got := a.Div(b)
	want := F4{0.5, 0, 1, 0}
	if got != want {
		t.Errorf("Div = %v, want %v", got, want)
	}
}

func TestV4RoundTrip(t *testing.T) {
	col := []mgl64.Vec3{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {10, 11, 12}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}}
	v := LoadV4(col, 0)
	v = v.Add(SplatV(mgl64.Vec3{1, 1, 1}))
	v.Store(col, 4)

	for i := 0; i < Width; i++ {
		want := col[i].Add(mgl64.Vec3{1, 1, 1})
		if col[4+i] != want {
			t.Errorf("lane %d = %v, want %v", i, col[4+i], want)
		}
	}
}

func TestV4Len(t *testing.T) {
	col := []mgl64.Vec3{{3, 4, 0}, {0, 0, 0}, {1, 0, 0}, {0, 0, 2}}
	l := LoadV4(col, 0).Len()
	want := F4{5, 0, 1, 2}
	for i := range want {
		if math.Abs(l[i]-want[i]) > 1e-12 {
			t.Errorf("lane %d len = %v, want %v", i, l[i], want[i])
		}
	}
}

func TestSelect(t *testing.T) {
	m := F4{1, 5, 2, 8}.Less(Splat(3))
	if !m[0] || m[1] || !m[2] || m[3] {
		t.Fatalf("Less mask = %v", m)
	}
	got := Select(m, Splat(1), Splat(0))
	if got != (F4{1, 0, 1, 0}) {
		t.Errorf("Select = %v", got)
	}
	if !m.Any() || m.And(m.Not()).Any() {
		t.Errorf("mask combinators inconsistent: %v", m)
	}
}

func TestF4ClampAndMap(t *testing.T) {
	col := []float64{-1, 0.25, 0.5, 2}
	got := LoadF4(col, 0).Clamp(0, 1).Map(func(x float64) float64 { return x * x })
	want := F4{0, 0.0625, 0.25, 1}
	if got != want {
		t.Errorf("Clamp.Map = %v, want %v", got, want)
	}
	got.Store(col, 0)
	if col[3] != 1 {
		t.Errorf("Store wrote %v", col)
	}
}

func TestSelectV(t *testing.T) {
	a := SplatV(mgl64.Vec3{1, 2, 3})
	b := SplatV(mgl64.Vec3{})
	m := F4{0, 1, 0, 1}.GreaterEq(Splat(1)).Or(Mask4{true})
	col := make([]mgl64.Vec3, Width)
	SelectV(m, a.Mul(F4{2, 2, 2, 2}), b).Store(col, 0)
	want := []mgl64.Vec3{{2, 4, 6}, {2, 4, 6}, {}, {2, 4, 6}}
	for i := range want {
		if col[i] != want[i] {
			t.Errorf("lane %d = %v, want %v", i, col[i], want[i])
		}
	}
}
