package preprocessor

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

type LuaPreprocessorConfig struct {
	Name       string `yaml:"-"`
	ScriptPath string `yaml:"script-path"`

	// Script is inline Lua source, used when ScriptPath is empty.
	Script string `yaml:"script"`

	// Context is passed to the script as its second argument.
	Context map[string]string `yaml:"context"`
}

const luaRewriteFunction = "rewrite_query"

// LuaPreprocessor rewrites queries with a user supplied Lua script.
// The script MUST define a function named `rewrite_query` which takes the
// query string and a context table and returns the rewritten query. It may
// return nil and an error message as a second value to reject the query.
// Note that user can have access to JSON helper using `local json = require("json")`
type LuaPreprocessor struct {
	cfg  LuaPreprocessorConfig
	pool *sync.Pool
}

func NewLuaPreprocessor(cfg LuaPreprocessorConfig) (*LuaPreprocessor, error) {
	if cfg.ScriptPath == "" && cfg.Script == "" {
		return nil, errors.New("either script-path or script is required")
	}

	// Compile once up front so a broken script fails at startup instead of
	// inside the pool.
	L, err := newLuaState(cfg)
	if err != nil {
		return nil, err
	}

	pool := &sync.Pool{
		New: func() any {
			L, err := newLuaState(cfg)
			if err != nil {
				panic(err)
			}
			return L
		},
	}
	pool.Put(L)

	return &LuaPreprocessor{
		cfg:  cfg,
		pool: pool,
	}, nil
}

func newLuaState(cfg LuaPreprocessorConfig) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // Don't load anything by default
	})

	// Manually open only the safe libraries
	// We skip 'os' and 'io' to prevent system commands/file access
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},  // Allows 'require'
		{lua.BaseLibName, lua.OpenBase},     // Allows 'print', 'pairs', etc.
		{lua.TabLibName, lua.OpenTable},     // Allows 'table.insert', etc.
		{lua.StringLibName, lua.OpenString}, // Allows string manipulation
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	// This allows the user to do: local json = require("json")
	luajson.Preload(L)

	var err error
	if cfg.ScriptPath != "" {
		err = L.DoFile(cfg.ScriptPath)
	} else {
		err = L.DoString(cfg.Script)
	}
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("cannot load lua script: %w", err)
	}

	if fn := L.GetGlobal(luaRewriteFunction); fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("lua script must define function `%s`", luaRewriteFunction)
	}

	return L, nil
}

func (lp *LuaPreprocessor) Name() string {
	return lp.cfg.Name
}

func (lp *LuaPreprocessor) Process(query string) (string, error) {
	L := lp.pool.Get().(*lua.LState)
	defer lp.pool.Put(L)

	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(luaRewriteFunction),
		NRet:    2,
		Protect: true,
	}, lua.LString(query), mapToLuaTable(L, lp.cfg.Context))

	if err != nil {
		return "", fmt.Errorf("lua script error: %w", err)
	}

	rewritten := L.Get(-2)
	luaErr := L.Get(-1)

	// Clean up stack IMMEDIATELY after extraction
	L.Pop(2)

	if luaErr != lua.LNil {
		return "", fmt.Errorf("lua script rejected query: %s", luaErr.String())
	}

	s, ok := rewritten.(lua.LString)
	if !ok {
		return "", fmt.Errorf("`%s` must return a string, got %s", luaRewriteFunction, rewritten.Type())
	}

	return string(s), nil
}
