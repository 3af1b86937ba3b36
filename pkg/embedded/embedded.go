// Package embedded 提供嵌入数据的统一访问接口
//
// 由于 Go embed 指令只能嵌入当前包目录及其子目录的文件，
// embed.FS 变量必须声明在项目根目录（embed.go）。
// 本包保存该文件系统，让其他包可以按 "data/..." 路径读取特效定义和配置。
//
// 使用前必须调用 Init() 初始化。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gonewx/particleops/internal/particle"
)

// ErrNotInitialized 在 Init 之前访问时返回
var ErrNotInitialized = errors.New("embedded package not initialized, call Init() first")

// EffectsGlob 匹配所有嵌入的特效库文件
const EffectsGlob = "data/effects/*.yaml"

var (
	dataFS      fs.FS
	initialized bool
)

// Init 设置数据文件系统，根目录下应包含 data/ 目录
// 必须在 main() 开始时、任何资源加载之前调用
func Init(data fs.FS) {
	dataFS = data
	initialized = data != nil
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	return initialized
}

// clean 标准化路径并检查 "data/" 前缀
func clean(p string) (string, error) {
	if !initialized {
		return "", ErrNotInitialized
	}
	// embed.FS 使用正斜杠
	p = strings.TrimPrefix(filepath.ToSlash(p), "./")
	if p != "data" && !strings.HasPrefix(p, "data/") {
		return "", fmt.Errorf("unknown resource path prefix: %s (must start with 'data/')", p)
	}
	return path.Clean(p), nil
}

// Open 打开嵌入文件
func Open(name string) (fs.File, error) {
	p, err := clean(name)
	if err != nil {
		return nil, err
	}
	return dataFS.Open(p)
}

// ReadFile 读取嵌入文件内容
func ReadFile(name string) ([]byte, error) {
	p, err := clean(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(dataFS, p)
}

// Exists 检查文件是否存在
func Exists(name string) bool {
	file, err := Open(name)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// Glob 匹配嵌入文件，结果排序
func Glob(pattern string) ([]string, error) {
	p, err := clean(pattern)
	if err != nil {
		return nil, err
	}
	matches, err := fs.Glob(dataFS, p)
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)
	return matches, nil
}

// ReadDir 读取目录内容
func ReadDir(name string) ([]fs.DirEntry, error) {
	p, err := clean(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadDir(dataFS, p)
}

// LoadEffectLibrary 读取 data/effects/ 下的全部特效库并合并
// 不同文件中的同名特效视为错误
func LoadEffectLibrary() (*particle.EffectLibrary, error) {
	files, err := Glob(EffectsGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to list effect files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no effect files match %s", EffectsGlob)
	}

	merged := &particle.EffectLibrary{}
	seen := make(map[string]string)
	for _, f := range files {
		lib, err := particle.ParseEffectFS(dataFS, f)
		if err != nil {
			return nil, err
		}
		for _, e := range lib.Effects {
			if prev, dup := seen[e.Name]; dup {
				return nil, fmt.Errorf("effect %q defined in both %s and %s", e.Name, prev, f)
			}
			seen[e.Name] = f
			merged.Effects = append(merged.Effects, e)
		}
	}
	return merged, nil
}
