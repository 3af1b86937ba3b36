package embedded

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

const sparksYAML = `
effects:
  - name: sparks
    maxParticles: 10
    emitters:
      - type: instantaneous_emitter
        params:
          num_to_emit: "10"
`

const smokeYAML = `
effects:
  - name: smoke
    maxParticles: 20
`

// withFS 用内存文件系统初始化，测试结束后恢复
func withFS(t *testing.T, files map[string]string) {
	t.Helper()
	m := fstest.MapFS{}
	for name, content := range files {
		m[name] = &fstest.MapFile{Data: []byte(content)}
	}
	prevFS, prevInit := dataFS, initialized
	Init(m)
	t.Cleanup(func() { dataFS, initialized = prevFS, prevInit })
}

func TestNotInitialized(t *testing.T) {
	prevFS, prevInit := dataFS, initialized
	t.Cleanup(func() { dataFS, initialized = prevFS, prevInit })
	Init(nil)

	if IsInitialized() {
		t.Fatal("Init(nil) reported initialized")
	}
	if _, err := ReadFile("data/simulation.yaml"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ReadFile err = %v, want ErrNotInitialized", err)
	}
	if _, err := Open("data/x"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Open err = %v, want ErrNotInitialized", err)
	}
}

func TestPathHandling(t *testing.T) {
	withFS(t, map[string]string{"data/simulation.yaml": "steps: 1\n"})

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"plain", "data/simulation.yaml", false},
		{"dot prefix", "./data/simulation.yaml", false},
		{"redundant separators", "data//simulation.yaml", false},
		{"wrong prefix", "assets/simulation.yaml", true},
		{"missing file", "data/none.yaml", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ReadFile(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadFile(%q) err = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if !tt.wantErr && string(data) != "steps: 1\n" {
				t.Errorf("content = %q", data)
			}
			if Exists(tt.path) == tt.wantErr {
				t.Errorf("Exists(%q) = %v", tt.path, !tt.wantErr)
			}
		})
	}
}

func TestLoadEffectLibraryMergesFiles(t *testing.T) {
	withFS(t, map[string]string{
		"data/effects/b_smoke.yaml":  smokeYAML,
		"data/effects/a_sparks.yaml": sparksYAML,
		"data/effects/readme.txt":    "ignored",
	})

	lib, err := LoadEffectLibrary()
	if err != nil {
		t.Fatalf("LoadEffectLibrary: %v", err)
	}
	names := lib.Names()
	if len(names) != 2 || names[0] != "sparks" || names[1] != "smoke" {
		t.Errorf("names = %v, want [sparks smoke] in file order", names)
	}
	if _, ok := lib.Find("smoke"); !ok {
		t.Error("smoke not found")
	}
}

func TestLoadEffectLibraryErrors(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		errContains string
	}{
		{"no files", map[string]string{"data/simulation.yaml": ""}, "no effect files"},
		{"duplicate name", map[string]string{
			"data/effects/a.yaml": sparksYAML,
			"data/effects/b.yaml": sparksYAML,
		}, "defined in both"},
		{"broken file", map[string]string{"data/effects/a.yaml": "effects: [\n"}, "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withFS(t, tt.files)
			_, err := LoadEffectLibrary()
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("err = %v, want it to contain %q", err, tt.errContains)
			}
		})
	}
}
