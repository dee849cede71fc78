package lua

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/mpataki/gym/internal/catalog"
)

// Runtime executes program scripts in a sandboxed environment. A script calls
// exercise{} and workout{} to build a definition file.
type Runtime struct {
	log  *slog.Logger
	file *catalog.File
	logs []string
}

func NewRuntime(log *slog.Logger) *Runtime {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runtime{log: log}
}

// Execute runs the script at path and returns what it defined.
func (r *Runtime) Execute(scriptPath string) (*catalog.File, error) {
	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
	return r.Run(name, string(script))
}

// Run executes source as a program script called name. If the script defines
// a program(ctx) function it is called once the top level has run.
func (r *Runtime) Run(name, source string) (*catalog.File, error) {
	r.file = &catalog.File{Name: name}
	r.logs = nil

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	defer L.Close()

	r.openSafeLibs(L)
	r.registerAPI(L)

	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}

	if program := L.GetGlobal("program"); program != lua.LNil {
		if program.Type() != lua.LTFunction {
			return nil, fmt.Errorf("program must be a function, got %s", program.Type())
		}
		ctx := L.NewTable()
		L.SetField(ctx, "name", lua.LString(name))

		L.Push(program)
		L.Push(ctx)
		if err := L.PCall(1, 0, nil); err != nil {
			return nil, fmt.Errorf("program execution failed: %w", err)
		}
	}

	if err := catalog.Validate(r.file); err != nil {
		return nil, err
	}

	r.log.Info("program script finished",
		"script", name,
		"exercises", len(r.file.Exercises),
		"workouts", len(r.file.Workouts),
	)
	return r.file, nil
}

// openSafeLibs loads base, table, string and math without file loading,
// printing or randomness.
func (r *Runtime) openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)

	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("print", lua.LNil) // Use log() instead

	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	math := L.GetGlobal("math")
	if tbl, ok := math.(*lua.LTable); ok {
		L.SetField(tbl, "random", lua.LNil)
		L.SetField(tbl, "randomseed", lua.LNil)
	}
}

func (r *Runtime) registerAPI(L *lua.LState) {
	L.SetGlobal("exercise", L.NewFunction(r.luaExercise))
	L.SetGlobal("workout", L.NewFunction(r.luaWorkout))
	L.SetGlobal("log", L.NewFunction(r.luaLog))
}

// luaExercise implements exercise{name, category, muscles, difficulty,
// description}. It returns the name so workouts can refer to it.
func (r *Runtime) luaExercise(L *lua.LState) int {
	tbl := L.CheckTable(1)

	def := catalog.ExerciseDef{
		Name:        stringField(L, tbl, "name"),
		Category:    stringField(L, tbl, "category"),
		Muscles:     stringsField(L, tbl, "muscles"),
		Difficulty:  stringField(L, tbl, "difficulty"),
		Description: stringField(L, tbl, "description"),
	}
	if def.Name == "" {
		L.ArgError(1, "exercise needs a name")
		return 0
	}

	r.file.Exercises = append(r.file.Exercises, def)
	L.Push(lua.LString(def.Name))
	return 1
}

// luaWorkout implements workout{name, description, color, duration,
// exercises = {{exercise, rest, sets = {{reps, weight}}}}}.
func (r *Runtime) luaWorkout(L *lua.LState) int {
	tbl := L.CheckTable(1)

	def := catalog.WorkoutDef{
		Name:        stringField(L, tbl, "name"),
		Description: stringField(L, tbl, "description"),
		Color:       stringField(L, tbl, "color"),
		Duration:    intField(L, tbl, "duration"),
	}
	if def.Name == "" {
		L.ArgError(1, "workout needs a name")
		return 0
	}

	forEachTable(L, tbl, "exercises", func(entry *lua.LTable) {
		e := catalog.EntryDef{
			Exercise: stringField(L, entry, "exercise"),
			Rest:     intField(L, entry, "rest"),
		}
		forEachTable(L, entry, "sets", func(set *lua.LTable) {
			e.Sets = append(e.Sets, catalog.SetDef{
				Reps:   intField(L, set, "reps"),
				Weight: float64(numberField(L, set, "weight")),
			})
		})
		def.Exercises = append(def.Exercises, e)
	})

	r.file.Workouts = append(r.file.Workouts, def)
	return 0
}

// luaLog implements the log(message) API
func (r *Runtime) luaLog(L *lua.LState) int {
	message := L.CheckString(1)
	r.logs = append(r.logs, message)
	r.log.Debug("program script", "message", message)
	return 0
}

// GetLogs returns the logs collected during execution
func (r *Runtime) GetLogs() []string {
	return r.logs
}

// IsScript checks if a file is a Lua program script
func IsScript(path string) bool {
	return filepath.Ext(path) == ".lua"
}

func stringField(L *lua.LState, tbl *lua.LTable, key string) string {
	switch v := tbl.RawGetString(key).(type) {
	case *lua.LNilType:
		return ""
	case lua.LString:
		return string(v)
	default:
		L.RaiseError("field %q must be a string, got %s", key, v.Type())
		return ""
	}
}

func numberField(L *lua.LState, tbl *lua.LTable, key string) lua.LNumber {
	switch v := tbl.RawGetString(key).(type) {
	case *lua.LNilType:
		return 0
	case lua.LNumber:
		return v
	default:
		L.RaiseError("field %q must be a number, got %s", key, v.Type())
		return 0
	}
}

func intField(L *lua.LState, tbl *lua.LTable, key string) int {
	return int(numberField(L, tbl, key))
}

func stringsField(L *lua.LState, tbl *lua.LTable, key string) []string {
	var out []string
	switch v := tbl.RawGetString(key).(type) {
	case *lua.LNilType:
	case lua.LString:
		out = append(out, string(v))
	case *lua.LTable:
		v.ForEach(func(_, item lua.LValue) {
			out = append(out, lua.LVAsString(item))
		})
	default:
		L.RaiseError("field %q must be a string or list, got %s", key, v.Type())
	}
	return out
}

// forEachTable calls fn for every table in the array at tbl[key], in order.
func forEachTable(L *lua.LState, tbl *lua.LTable, key string, fn func(*lua.LTable)) {
	switch v := tbl.RawGetString(key).(type) {
	case *lua.LNilType:
	case *lua.LTable:
		for i := 1; i <= v.Len(); i++ {
			item, ok := v.RawGetInt(i).(*lua.LTable)
			if !ok {
				L.RaiseError("%s[%d] must be a table", key, i)
				return
			}
			fn(item)
		}
	default:
		L.RaiseError("field %q must be a list, got %s", key, v.Type())
	}
}
