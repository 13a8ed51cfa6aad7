// Package loader compiles Lua battle content into engine definitions.
// The Lua VM is discarded after loading; nothing Lua survives into a battle.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/battlecore/engine/effects"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	battle   *lua.LTable
	units    []rawDef
	statuses []rawDef
	houses   []rawDef
	presets  map[string]*lua.LTable
}

// rawDef is a named definition table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// chunk is one piece of Lua source to execute.
type chunk struct {
	name string
	run  func(L *lua.LState) error
}

// Load reads all .lua files from dir, compiles them into battle definitions,
// validates references, and returns the immutable Defs. battle.lua runs
// first, the rest in name order.
func Load(dir string) (*state.Defs, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}

	var chunks []chunk
	for _, f := range sortedLuaFiles(luaFiles) {
		path := filepath.Join(dir, f)
		chunks = append(chunks, chunk{name: f, run: func(L *lua.LState) error { return L.DoFile(path) }})
	}
	return load(chunks)
}

// LoadString compiles a single Lua source. It is meant for tests and
// embedded content.
func LoadString(name, src string) (*state.Defs, error) {
	return load([]chunk{{name: name, run: func(L *lua.LState) error { return L.DoString(src) }}})
}

func load(chunks []chunk) (*state.Defs, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{presets: map[string]*lua.LTable{}}
	registerAPI(L, coll)

	for _, c := range chunks {
		if err := c.run(L); err != nil {
			return nil, fmt.Errorf("executing %s: %w", c.name, err)
		}
	}

	defs, err := compile(L, coll)
	if err != nil {
		return nil, fmt.Errorf("compiling battle content: %w", err)
	}

	warnings, err := validate(defs)
	for _, w := range warnings {
		slog.Warn("content warning", "detail", w)
	}
	if err != nil {
		return nil, err
	}

	applyHouses(defs)
	logTemplates(defs)
	return defs, nil
}

// logTemplates reports the size of every compiled unit at debug level.
func logTemplates(defs *state.Defs) {
	for _, name := range sortedKeys(defs.Units) {
		u := defs.Units[name]
		nodes, tier := 0, 0
		trees := make([]types.Effect, 0, len(u.Reactions)+1)
		if u.Attack != nil {
			trees = append(trees, u.Attack)
		}
		for _, r := range u.Reactions {
			trees = append(trees, r.Effects...)
		}
		for _, e := range trees {
			nodes += effects.Count(e)
			tier = max(tier, effects.Tier(e))
		}
		slog.Debug("unit compiled", "unit", name, "reactions", len(u.Reactions), "nodes", nodes, "tier", tier)
	}
}

// sortedLuaFiles puts battle.lua first and the rest in name order.
func sortedLuaFiles(files []string) []string {
	var first string
	var others []string
	for _, f := range files {
		if f == "battle.lua" {
			first = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if first != "" {
		return append([]string{first}, others...)
	}
	return others
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the VM or break determinism.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring", "require",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("random", lua.LNil)
		tbl.RawSetString("randomseed", lua.LNil)
	}
}
