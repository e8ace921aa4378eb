package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// scriptDirs are loaded in order under the scripts root. Missing directories
// are skipped.
var scriptDirs = []string{"core", "movement"}

// Engine wraps a single gopher-lua VM. Tick goroutine only.
type Engine struct {
	vm   *lua.LState
	dir  string
	log  *zap.Logger
	file int
}

// NewEngine creates a Lua engine and loads all scripts under scriptsDir.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{dir: scriptsDir, log: log}
	vm, n, err := e.load()
	if err != nil {
		return nil, err
	}
	e.vm, e.file = vm, n
	return e, nil
}

// NewEngineFromSource builds an engine from a single chunk. Used by tools and
// tests that carry their script inline.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	vm := newVM()
	if err := vm.DoString(src); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load inline script: %w", err)
	}
	return &Engine{vm: vm, log: log, file: 1}, nil
}

func newVM() *lua.LState {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return vm
}

func (e *Engine) load() (*lua.LState, int, error) {
	vm := newVM()
	total := 0
	for _, sub := range scriptDirs {
		n, err := e.loadDir(vm, filepath.Join(e.dir, sub))
		if err != nil {
			vm.Close()
			return nil, 0, fmt.Errorf("load %s scripts: %w", sub, err)
		}
		total += n
	}
	return vm, total, nil
}

// loadDir runs every .lua file in dir.
func (e *Engine) loadDir(vm *lua.LState, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			return n, fmt.Errorf("load %s: %w", path, err)
		}
		n++
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return n, nil
}

// Reload rebuilds the VM from disk. On failure the previous VM stays active.
func (e *Engine) Reload() error {
	if e.dir == "" {
		return nil
	}
	vm, n, err := e.load()
	if err != nil {
		return err
	}
	old := e.vm
	e.vm, e.file = vm, n
	if old != nil {
		old.Close()
	}
	e.log.Info("lua scripts reloaded", zap.Int("files", n))
	return nil
}

// Dirs returns the script directories that exist on disk, for file watching.
func (e *Engine) Dirs() []string {
	var dirs []string
	if e.dir == "" {
		return nil
	}
	for _, sub := range scriptDirs {
		d := filepath.Join(e.dir, sub)
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Scripts returns the number of files loaded.
func (e *Engine) Scripts() int { return e.file }

func (e *Engine) Close() {
	if e.vm != nil {
		e.vm.Close()
		e.vm = nil
	}
}
