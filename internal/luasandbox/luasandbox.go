// SPDX-License-Identifier: Apache-2.0

// This file contains modified code from the lua-sandbox project, available at
// https://github.com/kikito/lua-sandbox/blob/master/sandbox.lua, and licensed
// under the MIT License

package luasandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barkvcs/bark/internal/gitinterface"
	luasandboxopts "github.com/barkvcs/bark/internal/luasandbox/options/luasandbox"
	lua "github.com/yuin/gopher-lua"
)

const (
	LuaTimeOut = 10
)

var (
	ErrMismatchedAPINames = errors.New("name of API to be registered does not match API implementation")
)

// LuaEnvironment is a restricted Lua state bound to a single repository. A
// third-party rule module runs inside one of these; it can read Git objects
// through the registered APIs but has no filesystem, process, or network
// access. The policy layer creates a fresh environment per Validate call so
// a module cannot carry state across the commits it judges.
type LuaEnvironment struct {
	lState        *lua.LState
	contextCancel context.CancelFunc
	repository    *gitinterface.Repository
	allAPIs       []API
}

// NewLuaEnvironment creates a new Lua state bound to repository, applying
// any supplied options (currently just WithLuaTimeout).
func NewLuaEnvironment(ctx context.Context, repository *gitinterface.Repository, opts ...luasandboxopts.EnvironmentOption) (*LuaEnvironment, error) {
	options := &luasandboxopts.EnivronmentOptions{LuaTimeout: LuaTimeOut}
	for _, opt := range opts {
		opt(options)
	}

	// Create a new Lua state
	lState := lua.NewState(lua.Options{SkipOpenLibs: true})
	environment := &LuaEnvironment{
		lState:     lState,
		repository: repository,
		allAPIs:    []API{},
	}

	// Load default safe libraries
	modules := []struct {
		n string
		f lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage}, // Must be first
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}

	// Load the modules to the Lua state
	for _, pair := range modules {
		if err := lState.CallByParam(lua.P{
			Fn:      lState.NewFunction(pair.f),
			NRet:    0,
			Protect: true,
		}, lua.LString(pair.n)); err != nil {
			lState.Close()
			return nil, fmt.Errorf("unable to load Lua library %q: %w", pair.n, err)
		}
	}

	// Enable only safe functions
	environment.enableOnlySafeFunctions()

	// Set the timeout
	environment.setTimeOut(ctx, options.LuaTimeout)

	// Register the Go functions with the Lua state
	if err := environment.registerAPIFunctions(); err != nil {
		environment.Cleanup()
		return nil, err
	}

	return environment, nil
}

// RunValidate loads script (which must define a global `validate(args,
// target)` function) and calls it with args re-encoded as a Lua table and
// target as a commit ID string. The script returns (accepted bool, message
// string); message is used as the RuleViolation text when accepted is
// false.
func (l *LuaEnvironment) RunValidate(script string, args map[string]any, target gitinterface.Hash) (bool, string, error) {
	if err := l.lState.DoString(script); err != nil {
		return false, "", fmt.Errorf("unable to load rule module: %w", err)
	}

	fn := l.lState.GetGlobal("validate")
	if fn.Type() != lua.LTFunction {
		return false, "", errors.New("rule module does not define a validate(args, target) function")
	}

	argsTable := l.lState.NewTable()
	for key, value := range args {
		argsTable.RawSetString(key, toLuaValue(value))
	}

	if err := l.lState.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, argsTable, lua.LString(target.String())); err != nil {
		return false, "", fmt.Errorf("rule module validate() failed: %w", err)
	}

	message := l.lState.ToString(-1)
	accepted := lua.LVAsBool(l.lState.Get(-2))
	l.lState.Pop(2)

	return accepted, message, nil
}

func toLuaValue(value any) lua.LValue {
	switch v := value.(type) {
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case bool:
		return lua.LBool(v)
	default:
		return lua.LString(fmt.Sprintf("%v", v))
	}
}

func (l *LuaEnvironment) GetAPIs() []API {
	return l.allAPIs
}

func (l *LuaEnvironment) Cleanup() {
	l.contextCancel()
	l.lState.Close()
}

// enableOnlySafeFunctions disables all functions that are deemed to be unsafe.
func (l *LuaEnvironment) enableOnlySafeFunctions() {
	//-- List of unsafe packages/functions:
	// -- * string.rep: can be used to allocate millions of bytes in 1 operation
	// -- * {set|get}metatable: can be used to modify the metatable of global objects (strings, integers)
	// -- * collectgarbage: can affect performance of other systems
	// -- * dofile: can access the server filesystem
	// -- * _G: It has access to everything. It can be mocked to other things though.
	// -- * load{file|string}: All unsafe because they can grant acces to global env
	// -- * raw{get|set|equal}: Potentially unsafe
	// -- * module|require|module: Can modify the host settings
	// -- * string.dump: Can display confidential server info (implementation of functions)
	// -- * math.randomseed: Can affect the host system
	// -- * io.*, os.*: Most stuff there is unsafe
	// -- * debug.*: Unsafe, see https://www.lua.org/pil/23.html
	// -- * package.*: Allows arbitrary module loading, see https://www.lua.org/manual/5.3/manual.html#pdf-package

	// Disable all unsafe functions
	l.lState.SetGlobal("dofile", lua.LNil)
	l.lState.SetGlobal("load", lua.LNil)
	l.lState.SetGlobal("loadfile", lua.LNil)
	l.lState.SetGlobal("loadstring", lua.LNil)
	l.lState.SetGlobal("require", lua.LNil)
	l.lState.SetGlobal("module", lua.LNil)
	l.lState.SetGlobal("collectgarbage", lua.LNil)
	l.lState.SetGlobal("rawget", lua.LNil)
	l.lState.SetGlobal("rawset", lua.LNil)
	l.lState.SetGlobal("rawequal", lua.LNil)
	l.lState.SetGlobal("setmetatable", lua.LNil)
	l.lState.SetGlobal("getmetatable", lua.LNil)
	l.lState.SetGlobal("_G", lua.LNil)
	l.lState.SetGlobal("os", lua.LNil)
	l.lState.SetGlobal("io", lua.LNil)
	l.lState.SetGlobal("debug", lua.LNil)
	l.lState.SetGlobal("package", lua.LNil)

	if strMod, ok := l.lState.GetGlobal(lua.StringLibName).(*lua.LTable); ok {
		strMod.RawSetString("rep", lua.LNil)
		strMod.RawSetString("dump", lua.LNil)
		l.protectModule(strMod, lua.StringLibName)
	}

	// Load protected modules with only safe functions
	if mathMod, ok := l.lState.GetGlobal(lua.MathLibName).(*lua.LTable); ok {
		mathMod.RawSetString("randomseed", lua.LNil)
		l.protectModule(mathMod, lua.MathLibName)
	}

	if tabMod, ok := l.lState.GetGlobal(lua.TabLibName).(*lua.LTable); ok {
		l.protectModule(tabMod, lua.TabLibName)
	}

	if baseMod, ok := l.lState.GetGlobal(lua.BaseLibName).(*lua.LTable); ok {
		l.protectModule(baseMod, lua.BaseLibName)
	}
}

// protectModule protects the specified module from being modified by setting a
// protected metatable with __newindex and __metatable fields.
func (l *LuaEnvironment) protectModule(tbl *lua.LTable, moduleName string) {
	mt := l.lState.NewTable()
	l.lState.SetMetatable(tbl, mt)
	l.lState.SetField(mt, "__newindex", l.lState.NewFunction(func(l *lua.LState) int {
		varName := l.ToString(2)
		l.RaiseError("attempt to modify read-only table '%s.%s'", moduleName, varName)
		return 0
	}))
	l.lState.SetField(mt, "__metatable", lua.LString("protected"))
}

// setTimeOut sets the timeout for the Lua state.
func (l *LuaEnvironment) setTimeOut(ctx context.Context, timeOut int) {
	ctx, l.contextCancel = context.WithTimeout(ctx, time.Duration(timeOut)*time.Second)
	l.lState.SetContext(ctx)
}

// registerAPIFunctions makes the sandbox's standard APIs available.
func (l *LuaEnvironment) registerAPIFunctions() error {
	registerAPIs := map[string]API{
		"matchRegex":            l.apiMatchRegex(),
		"strSplit":              l.apiStrSplit(),
		"gitReadBlob":           l.apiGitReadBlob(),
		"gitReadFile":           l.apiGitReadFile(),
		"gitListFiles":          l.apiGitListFiles(),
		"gitFilesModified":      l.apiGitFilesModified(),
		"gitGetReference":       l.apiGitGetReference(),
		"gitGetCommitMessage":   l.apiGitGetCommitMessage(),
		"gitGetCommitParentIDs": l.apiGitGetCommitParentIDs(),
		"gitIsAncestor":         l.apiGitIsAncestor(),
	}

	for name, availableAPI := range registerAPIs {
		if name != availableAPI.GetName() {
			return fmt.Errorf("%w: '%s' does not match '%s'", ErrMismatchedAPINames, name, availableAPI.GetName())
		}

		l.allAPIs = append(l.allAPIs, availableAPI)

		switch availableAPI := availableAPI.(type) {
		case *LuaAPI:
			if err := l.lState.DoString(availableAPI.Implementation); err != nil {
				return fmt.Errorf("unable to register API '%s': %w", name, err)
			}
		case *GoAPI:
			l.lState.SetGlobal(name, l.lState.NewFunction(availableAPI.Implementation))
		}
	}

	return nil
}
