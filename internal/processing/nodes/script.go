package nodes

import (
	"os"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// ScriptNodeConfig configures a ScriptNode, grounded on nodes/python.rs's
// PythonNodeConfig with the embedded interpreter swapped for gopher-lua.
type ScriptNodeConfig struct {
	// ScriptPath is the Lua source file loaded on each call when
	// AutoReload is set, or once, on the first Process call, otherwise.
	ScriptPath string
	// ProcessFunction is the Lua global called with the current frame's
	// table representation. Defaults to "process_data".
	ProcessFunction string
	// TimeoutSeconds bounds how long a single call is allowed to run.
	TimeoutSeconds int
	// AutoReload re-reads ScriptPath from disk before every call,
	// trading performance for a faster edit-reload loop.
	AutoReload bool
}

// DefaultScriptNodeConfig mirrors python.rs's PythonNodeConfig::default.
func DefaultScriptNodeConfig(scriptPath string) ScriptNodeConfig {
	return ScriptNodeConfig{
		ScriptPath:      scriptPath,
		ProcessFunction: "process_data",
		TimeoutSeconds:  30,
		AutoReload:      false,
	}
}

// ScriptNode runs a user-supplied Lua script against each frame of data,
// grounded on nodes/python.rs's PythonNode: no interpreter instance is
// held across calls, a fresh lua.LState is created per invocation instead
// of acquiring a GIL, and a timeout bounds how long the script may run.
type ScriptNode struct {
	id     string
	config ScriptNodeConfig

	mu           sync.Mutex
	scriptSource string
	loadedAt     time.Time
}

func (n *ScriptNode) ID() string   { return n.id }
func (n *ScriptNode) Type() string { return "script" }

// NewScriptNode builds a script node. The script is loaded lazily on the
// first Process call so a misconfigured path surfaces as a processing
// error rather than a constructor panic.
func NewScriptNode(id string, config ScriptNodeConfig) *ScriptNode {
	if config.ProcessFunction == "" {
		config.ProcessFunction = "process_data"
	}
	return &ScriptNode{id: id, config: config}
}

func (n *ScriptNode) ensureSourceLocked() error {
	if n.scriptSource != "" && !n.config.AutoReload {
		return nil
	}
	raw, err := os.ReadFile(n.config.ScriptPath)
	if err != nil {
		return errors.New(err).Category(errors.CategoryIO).
			Context("node_id", n.id).
			Context("script_path", n.config.ScriptPath).
			Build()
	}
	n.scriptSource = string(raw)
	n.loadedAt = time.Now()
	return nil
}

// Process loads the script's table for input, calls config.ProcessFunction
// with it, and decodes the returned table back into a processing.Data of
// the same kind. A script that returns nothing, or omits fields, leaves
// the corresponding input values unchanged.
func (n *ScriptNode) Process(input processing.Data) (processing.Data, error) {
	if input.Kind != processing.KindSingleChannel && input.Kind != processing.KindDualChannel {
		return input, nil
	}

	n.mu.Lock()
	err := n.ensureSourceLocked()
	source := n.scriptSource
	n.mu.Unlock()
	if err != nil {
		return processing.Data{}, err
	}

	timeout := time.Duration(n.config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	resultCh := make(chan scriptResult, 1)
	go n.runScript(source, input, resultCh)

	select {
	case res := <-resultCh:
		if res.err != nil {
			return processing.Data{}, errors.New(res.err).Category(errors.CategoryProcessing).
				Context("node_id", n.id).
				Context("function", n.config.ProcessFunction).
				Build()
		}
		return res.data, nil
	case <-time.After(timeout):
		return processing.Data{}, errors.New(errors.NewStd("script execution timed out")).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Context("timeout_seconds", n.config.TimeoutSeconds).
			Build()
	}
}

type scriptResult struct {
	data processing.Data
	err  error
}

func (n *ScriptNode) runScript(source string, input processing.Data, out chan<- scriptResult) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(source); err != nil {
		out <- scriptResult{err: err}
		return
	}

	fn := L.GetGlobal(n.config.ProcessFunction)
	if fn == lua.LNil {
		out <- scriptResult{err: errors.New(errors.NewStd("script does not define the configured process function")).
			Category(errors.CategoryProcessing).Context("function", n.config.ProcessFunction).Build()}
		return
	}

	arg := dataToLuaTable(L, input)
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, arg); err != nil {
		out <- scriptResult{err: err}
		return
	}

	ret := L.Get(-1)
	L.Pop(1)
	table, ok := ret.(*lua.LTable)
	if !ok {
		out <- scriptResult{data: input}
		return
	}

	out <- scriptResult{data: luaTableToData(table, input)}
}

func dataToLuaTable(L *lua.LState, d processing.Data) *lua.LTable {
	t := L.NewTable()
	switch d.Kind {
	case processing.KindSingleChannel:
		t.RawSetString("type", lua.LString("SingleChannel"))
		t.RawSetString("samples", float32SliceToLua(L, d.Samples))
	case processing.KindDualChannel:
		t.RawSetString("type", lua.LString("DualChannel"))
		t.RawSetString("channel_a", float32SliceToLua(L, d.ChannelA))
		t.RawSetString("channel_b", float32SliceToLua(L, d.ChannelB))
	}
	t.RawSetString("sample_rate", lua.LNumber(d.SampleRate))
	t.RawSetString("timestamp", lua.LNumber(d.Timestamp))
	t.RawSetString("frame_number", lua.LNumber(d.FrameNumber))
	return t
}

func float32SliceToLua(L *lua.LState, samples []float32) *lua.LTable {
	t := L.NewTable()
	for i, s := range samples {
		t.RawSetInt(i+1, lua.LNumber(s))
	}
	return t
}

func luaSliceToFloat32(t *lua.LTable) []float32 {
	out := make([]float32, 0, t.Len())
	t.ForEach(func(_, value lua.LValue) {
		if n, ok := value.(lua.LNumber); ok {
			out = append(out, float32(n))
		}
	})
	return out
}

// luaTableToData decodes a script's returned table back into a
// processing.Data, falling back to fallback's fields for anything the
// script omitted.
func luaTableToData(t *lua.LTable, fallback processing.Data) processing.Data {
	sampleRate := fallback.SampleRate
	if v, ok := t.RawGetString("sample_rate").(lua.LNumber); ok {
		sampleRate = int(v)
	}
	timestamp := fallback.Timestamp
	if v, ok := t.RawGetString("timestamp").(lua.LNumber); ok {
		timestamp = int64(v)
	}
	frameNumber := fallback.FrameNumber
	if v, ok := t.RawGetString("frame_number").(lua.LNumber); ok {
		frameNumber = uint64(v)
	}

	switch fallback.Kind {
	case processing.KindDualChannel:
		a, b := fallback.ChannelA, fallback.ChannelB
		if v, ok := t.RawGetString("channel_a").(*lua.LTable); ok {
			a = luaSliceToFloat32(v)
		}
		if v, ok := t.RawGetString("channel_b").(*lua.LTable); ok {
			b = luaSliceToFloat32(v)
		}
		return processing.NewDualChannelData(a, b, sampleRate, timestamp, frameNumber)
	default:
		samples := fallback.Samples
		if v, ok := t.RawGetString("samples").(*lua.LTable); ok {
			samples = luaSliceToFloat32(v)
		}
		return processing.NewSingleChannelData(samples, sampleRate, timestamp, frameNumber)
	}
}

func (n *ScriptNode) AcceptsInput(input processing.Data) bool {
	return input.Kind == processing.KindSingleChannel || input.Kind == processing.KindDualChannel
}

func (n *ScriptNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	if !n.AcceptsInput(input) {
		return 0, false
	}
	return input.Kind, true
}

func (n *ScriptNode) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scriptSource = ""
}

func (n *ScriptNode) SupportsHotReload() bool { return true }

// UpdateConfig applies "script_path", "process_function", "timeout_seconds",
// and "auto_reload" parameters in place.
func (n *ScriptNode) UpdateConfig(parameters map[string]any) (bool, error) {
	changed := false
	n.mu.Lock()
	defer n.mu.Unlock()

	if raw, ok := parameters["script_path"]; ok {
		path, ok := raw.(string)
		if !ok {
			return false, errors.New(errors.NewStd("script_path parameter must be a string")).
				Category(errors.CategoryValidation).Context("node_id", n.id).Build()
		}
		n.config.ScriptPath = path
		n.scriptSource = ""
		changed = true
	}
	if raw, ok := parameters["process_function"]; ok {
		fn, ok := raw.(string)
		if !ok {
			return false, errors.New(errors.NewStd("process_function parameter must be a string")).
				Category(errors.CategoryValidation).Context("node_id", n.id).Build()
		}
		n.config.ProcessFunction = fn
		changed = true
	}
	if raw, ok := parameters["timeout_seconds"]; ok {
		secs, ok := raw.(float64)
		if !ok {
			return false, errors.New(errors.NewStd("timeout_seconds parameter must be numeric")).
				Category(errors.CategoryValidation).Context("node_id", n.id).Build()
		}
		n.config.TimeoutSeconds = int(secs)
		changed = true
	}
	if raw, ok := parameters["auto_reload"]; ok {
		reload, ok := raw.(bool)
		if !ok {
			return false, errors.New(errors.NewStd("auto_reload parameter must be a boolean")).
				Category(errors.CategoryValidation).Context("node_id", n.id).Build()
		}
		n.config.AutoReload = reload
		changed = true
	}

	return changed, nil
}
