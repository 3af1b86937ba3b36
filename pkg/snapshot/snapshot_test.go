package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/quasilyte/gdata/v2"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/operators"
	"github.com/gonewx/particleops/pkg/particles"
)

func unit(typ string, kv ...string) particle.UnitConfig {
	uc := particle.UnitConfig{Type: typ, Params: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		uc.Params[kv[i]] = kv[i+1]
	}
	return uc
}

// fountain 只在出生时使用随机数，之后的模拟是确定的
func fountain() particle.EffectConfig {
	return particle.EffectConfig{
		Name:             "fountain",
		MaxParticles:     16,
		InitialParticles: 12,
		Initializers: []particle.UnitConfig{
			unit("lifetime_random", "min", "10", "max", "10"),
			unit("velocity_random", "speed_min", "5", "speed_max", "9"),
			unit("alpha_random", "min", "0.3", "max", "0.9"),
		},
		Operators: []particle.UnitConfig{
			unit("basic_movement", "gravity", "0 0 -9.8", "drag", "0.1"),
			unit("alpha_fade", "start_time", "0", "end_time", "1"),
			unit("lifespan_decay"),
		},
		Children: []particle.EffectConfig{{
			Name:             "trail",
			MaxParticles:     8,
			InitialParticles: 4,
			Initializers:     []particle.UnitConfig{unit("lifetime_random", "min", "10", "max", "10")},
		}},
	}
}

func newFountain(t *testing.T) *particles.Collection {
	t.Helper()
	cfg := fountain()
	def, err := particles.Build(operators.NewRegistry(), &cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return particles.NewCollection(def, particles.Services{Seed: 3})
}

func assertSameParticles(t *testing.T, a, b *particles.Collection) {
	t.Helper()
	if a.ActiveCount() != b.ActiveCount() {
		t.Fatalf("active = %d vs %d", a.ActiveCount(), b.ActiveCount())
	}
	pa, pb := a.Store().Vecs(attribute.XYZ), b.Store().Vecs(attribute.XYZ)
	aa, ab := a.Store().Floats(attribute.Alpha), b.Store().Floats(attribute.Alpha)
	for i := 0; i < a.ActiveCount(); i++ {
		if !pa[i].ApproxEqualThreshold(pb[i], 1e-12) || aa[i] != ab[i] {
			t.Fatalf("particle %d: %v/%v vs %v/%v", i, pa[i], aa[i], pb[i], ab[i])
		}
	}
}

func TestFileRoundTripContinuesIdentically(t *testing.T) {
	original := newFountain(t)
	original.SetControlPoint(2, mgl64.Vec3{1, 2, 3})
	for i := 0; i < 5; i++ {
		original.Simulate(0.05)
	}

	path := filepath.Join(t.TempDir(), "fountain.snap")
	if err := Save(path, original); err != nil {
		t.Fatalf("Save: %v", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Effect != "fountain" || f.Version != Version {
		t.Errorf("header = %q v%d", f.Effect, f.Version)
	}

	restored := newFountain(t)
	if err := f.Apply(restored); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if restored.CurrentTime() != original.CurrentTime() || restored.Steps() != 5 {
		t.Errorf("time = %v steps = %d", restored.CurrentTime(), restored.Steps())
	}
	if got := restored.ControlPoints().Position(2); got != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("control point 2 = %v", got)
	}
	if restored.Children()[0].ActiveCount() != 4 {
		t.Errorf("child active = %d, want 4", restored.Children()[0].ActiveCount())
	}

	for i := 0; i < 5; i++ {
		original.Simulate(0.05)
		restored.Simulate(0.05)
	}
	assertSameParticles(t, original, restored)
}

func TestApplyRejectsMismatches(t *testing.T) {
	c := newFountain(t)
	c.Simulate(0.1)
	f := Capture(c)

	other := f.State
	other.Name = "smoke"
	if err := (&File{Version: Version, State: other}).Apply(newFountain(t)); err == nil {
		t.Error("snapshot of another effect applied")
	}
	if err := (&File{Version: Version + 1, State: f.State}).Apply(newFountain(t)); err == nil {
		t.Error("future version applied")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap")
	if err := os.WriteFile(path, []byte("not gob"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("corrupt snapshot decoded")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.snap")); err == nil {
		t.Error("missing snapshot loaded")
	}
}

// createTestGdataManager 创建测试专用的 gdata Manager，无法创建时返回 nil
func createTestGdataManager(t *testing.T) *gdata.Manager {
	appName := fmt.Sprintf("particleops_snapshot_test_%d", time.Now().UnixNano())
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil
	}
	t.Cleanup(func() {
		if home, err := os.UserHomeDir(); err == nil {
			os.RemoveAll(filepath.Join(home, ".local", "share", appName))
		}
	})
	return manager
}

func TestStoreSlots(t *testing.T) {
	manager := createTestGdataManager(t)
	if manager == nil {
		t.Skip("Cannot create gdata manager for testing")
	}
	store := NewStore(manager)

	c := newFountain(t)
	for i := 0; i < 3; i++ {
		c.Simulate(0.05)
	}
	if store.Exists("quick") {
		t.Fatal("fresh store has a slot")
	}
	if err := store.Save("quick", c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.Exists("quick") {
		t.Fatal("slot missing after Save")
	}

	restored := newFountain(t)
	if err := store.Restore("quick", restored); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	assertSameParticles(t, c, restored)

	if _, err := store.Load("other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) err = %v, want ErrNotFound", err)
	}
}

func TestStoreWithoutManagerIsNoOp(t *testing.T) {
	store := NewStore(nil)
	c := newFountain(t)
	c.Simulate(0.1)

	if store.Persistent() {
		t.Error("nil manager reported persistent")
	}
	if err := store.Save("slot", c); err != nil {
		t.Errorf("Save without manager: %v", err)
	}
	if err := store.Save("", c); err == nil {
		t.Error("empty slot name accepted")
	}
	if _, err := store.Load("slot"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load without manager err = %v", err)
	}
}
