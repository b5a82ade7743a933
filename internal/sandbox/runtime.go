package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/providers/scraper"
)

// hardenPrelude removes the constructor links that would let code rebuild
// eval from any function value once the Function global is gone.
const hardenPrelude = `(function () {
	var fns = [function () {}, function* () {}, async function () {}];
	for (var i = 0; i < fns.length; i++) {
		Object.defineProperty(Object.getPrototypeOf(fns[i]), "constructor", {
			value: undefined, writable: false, enumerable: false, configurable: false
		});
	}
})();`

// Runtime wraps a goja VM whose global scope is reduced to the policy's
// allow list
type Runtime struct {
	vm       *goja.Runtime
	config   Config
	services Services
	logger   *zap.Logger
	mu       sync.Mutex

	console   []LogEntry
	consoleMu sync.Mutex
}

// New creates a new sandboxed runtime
func New(config Config, services Services, logger *zap.Logger) (*Runtime, error) {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.MaxSleep <= 0 {
		config.MaxSleep = DefaultConfig().MaxSleep
	}
	if services.Toolkit == nil {
		services.Toolkit = scraper.NewToolkit()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runtime{
		config:   config,
		services: services,
		logger:   logger,
	}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

// init builds a fresh VM and applies the policy to its globals
func (r *Runtime) init() error {
	vm := goja.New()
	if r.config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(r.config.MaxCallStackSize)
	}
	if _, err := vm.RunString(hardenPrelude); err != nil {
		return fmt.Errorf("harden runtime: %w", err)
	}

	global := vm.GlobalObject()
	for _, name := range global.GetOwnPropertyNames() {
		if Authorize(name) {
			continue
		}
		if err := global.Delete(name); err != nil {
			if err := vm.Set(name, goja.Undefined()); err != nil {
				return fmt.Errorf("strip global %s: %w", name, err)
			}
		}
	}

	r.vm = vm
	return nil
}

// Execute evaluates code with url bound in scope. The evaluation is stopped
// when the configured timeout elapses or ctx is cancelled.
func (r *Runtime) Execute(ctx context.Context, code, pageURL string) (res *Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, ErrClosed
	}

	start := time.Now()
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()

	results := r.vm.NewArray()
	if err := r.installScope(ctx, results, pageURL); err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	defer func() {
		close(stop)
		wg.Wait()
		r.vm.ClearInterrupt()

		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("host panic during evaluation: %v", p)
		}
	}()

	val, runErr := r.vm.RunString(code)
	if runErr != nil {
		var interrupted *goja.InterruptedError
		switch {
		case parent.Err() != nil:
			return nil, fmt.Errorf("evaluation aborted: %w", parent.Err())
		case errors.As(runErr, &interrupted):
			return nil, fmt.Errorf("%w after %s", ErrTimeout, r.config.Timeout)
		default:
			return nil, runErr
		}
	}

	res = &Result{
		Output:   collect(r.vm.Get(ScopeResults), val),
		Duration: time.Since(start),
	}
	r.consoleMu.Lock()
	res.Console = append([]LogEntry{}, r.console...)
	r.consoleMu.Unlock()

	return res, nil
}

// collect picks the evaluation output: the results global as the script
// left it when populated, otherwise an array or object completion value,
// otherwise nothing
func collect(results, completion goja.Value) any {
	if results != nil && !goja.IsUndefined(results) && !goja.IsNull(results) {
		if exported, ok := plain(results.Export()).([]any); ok && len(exported) > 0 {
			return exported
		}
	}
	if completion == nil || goja.IsUndefined(completion) || goja.IsNull(completion) {
		return []any{}
	}
	switch v := plain(completion.Export()).(type) {
	case []any, map[string]any:
		return v
	}
	return []any{}
}

type dropped struct{}

// plain converts exported values into JSON-shaped data: maps with string
// keys, []any, strings, bools, int64/float64 and nil. Functions are dropped
// and non-finite floats become nil.
func plain(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if p := plain(e); p != (dropped{}) {
				out[k] = p
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(x))
		for _, e := range x {
			if p := plain(e); p != (dropped{}) {
				out = append(out, p)
			}
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return dropped{}
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if p := plain(rv.Index(i).Interface()); p != (dropped{}) {
				out = append(out, p)
			}
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Sprint(v)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if p := plain(iter.Value().Interface()); p != (dropped{}) {
				out[iter.Key().String()] = p
			}
		}
		return out
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32:
		return plain(rv.Float())
	}
	return fmt.Sprint(v)
}

// Console returns a copy of the console output of the last evaluation
func (r *Runtime) Console() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	return append([]LogEntry{}, r.console...)
}

// Reset replaces the VM so no state leaks into the next evaluation
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()
	return r.init()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.console = nil
	return nil
}
