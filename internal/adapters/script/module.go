package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"

	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/internal/ports"
	"github.com/bft-labs/gonesbridge/pkg/log"
)

// Module is one script instance. The runtime is only touched by the
// goroutine inside Load or Run; other goroutines talk to it through the
// task queue.
type Module struct {
	vm     *goja.Runtime
	host   ports.Host
	logger log.Logger

	// ctx is the context of the Load or Run call currently driving the runtime.
	ctx context.Context

	main      goja.Callable
	mainThis  goja.Value
	exit      goja.Callable
	saveState goja.Callable
	loadState goja.Callable

	canvas *goja.Object
	// hasCanvas is set once createCanvas has run.
	hasCanvas atomic.Bool

	ran    atomic.Bool
	closed atomic.Bool
	tasks  taskQueue
}

type task struct {
	name string
	fn   func() error
	// last makes Run return after the task.
	last bool
}

// taskQueue is unbounded so that producers never block.
type taskQueue struct {
	mu     sync.Mutex
	items  []task
	signal chan struct{}
}

func (q *taskQueue) push(t task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *taskQueue) drain() []task {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func newModule(vm *goja.Runtime, host ports.Host, logger log.Logger) *Module {
	return &Module{
		vm:     vm,
		host:   host,
		logger: logger,
		tasks:  taskQueue{signal: make(chan struct{}, 1)},
	}
}

// install defines the globals the script may use.
func (m *Module) install() error {
	client := m.vm.NewObject()
	for name, fn := range map[string]func(goja.FunctionCall) goja.Value{
		"setRomName":   m.setRomName,
		"dbPut":        m.dbPut,
		"dbGet":        m.dbGet,
		"createCanvas": m.createCanvas,
	} {
		if err := client.Set(name, fn); err != nil {
			return err
		}
	}
	if err := m.vm.Set("GonesClient", client); err != nil {
		return err
	}

	console := m.vm.NewObject()
	_ = console.Set("log", m.console(m.logger.Debug))
	_ = console.Set("warn", m.console(m.logger.Warn))
	_ = console.Set("error", m.console(m.logger.Error))
	return m.vm.Set("console", console)
}

// bind resolves the entry point and the Gones capabilities. The entry
// point is Gones.main, or a global main when Gones has none.
func (m *Module) bind() error {
	gones, ok := m.vm.Get("Gones").(*goja.Object)
	if !ok {
		return errors.New("Gones is not defined")
	}

	if m.main, ok = goja.AssertFunction(gones.Get("main")); ok {
		m.mainThis = gones
	} else if m.main, ok = goja.AssertFunction(m.vm.Get("main")); ok {
		m.mainThis = goja.Undefined()
	} else {
		return errors.New("neither Gones.main nor main is a function")
	}
	for name, dst := range map[string]*goja.Callable{
		"exit":      &m.exit,
		"saveState": &m.saveState,
		"loadState": &m.loadState,
	} {
		fn, ok := goja.AssertFunction(gones.Get(name))
		if !ok {
			return fmt.Errorf("Gones.%s is not a function", name)
		}
		*dst = fn
	}
	return nil
}

// Run calls main with the cartridge and then serves queued requests until
// exit() has run or ctx ends.
func (m *Module) Run(ctx context.Context, cart domain.Cartridge) error {
	if !m.ran.CompareAndSwap(false, true) {
		return errors.New("script: module already ran")
	}
	if m.closed.Load() {
		return errors.New("script: module closed")
	}
	m.ctx = ctx

	stop := context.AfterFunc(ctx, func() { m.vm.Interrupt(ctx.Err()) })
	defer stop()

	cartridge := m.vm.NewObject()
	_ = cartridge.Set("name", cart.Name)
	_ = cartridge.Set("data", m.vm.NewArrayBuffer(append([]byte(nil), cart.Data...)))

	if _, err := m.main(m.mainThis, cartridge); err != nil {
		return m.runError(ctx, "main", err)
	}

	for {
		for _, t := range m.tasks.drain() {
			if err := t.fn(); err != nil {
				return m.runError(ctx, t.name, err)
			}
			if t.last {
				return nil
			}
		}

		select {
		case <-m.tasks.signal:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Exit queues Gones.exit(); Run returns after it.
func (m *Module) Exit() {
	m.tasks.push(task{name: "exit", fn: m.invoke(&m.exit), last: true})
}

// SaveState queues Gones.saveState().
func (m *Module) SaveState() {
	m.tasks.push(task{name: "saveState", fn: m.invoke(&m.saveState)})
}

// LoadState queues Gones.loadState().
func (m *Module) LoadState() {
	m.tasks.push(task{name: "loadState", fn: m.invoke(&m.loadState)})
}

// Close interrupts any script still executing.
func (m *Module) Close() error {
	if m.closed.CompareAndSwap(false, true) {
		m.vm.Interrupt("module closed")
	}
	return nil
}

func (m *Module) invoke(fn *goja.Callable) func() error {
	return func() error {
		_, err := (*fn)(goja.Undefined())
		return err
	}
}

func (m *Module) runError(ctx context.Context, where string, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) && ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("script: %s: %w", where, err)
}

func (m *Module) setRomName(call goja.FunctionCall) goja.Value {
	m.host.SetRomName(call.Argument(0).String())
	return goja.Undefined()
}

func (m *Module) dbPut(call goja.FunctionCall) goja.Value {
	collection := m.collection(call.Argument(0))
	name := call.Argument(1).String()
	data, err := m.bytes(call.Argument(2))
	if err != nil {
		panic(m.vm.NewTypeError("dbPut: %v", err))
	}
	if err := m.host.DBPut(m.ctx, collection, name, data); err != nil {
		panic(m.vm.NewGoError(err))
	}
	return goja.Undefined()
}

func (m *Module) dbGet(call goja.FunctionCall) goja.Value {
	collection := m.collection(call.Argument(0))
	data, err := m.host.DBGet(m.ctx, collection, call.Argument(1).String())
	if err != nil {
		panic(m.vm.NewGoError(err))
	}
	if data == nil {
		return goja.Null()
	}
	return m.vm.ToValue(m.vm.NewArrayBuffer(data))
}

func (m *Module) collection(v goja.Value) domain.Collection {
	c, err := domain.ParseCollection(v.String())
	if err != nil {
		panic(m.vm.NewGoError(err))
	}
	return c
}

// bytes accepts an ArrayBuffer, a Uint8Array or a string.
func (m *Module) bytes(v goja.Value) ([]byte, error) {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	switch data := v.Export().(type) {
	case goja.ArrayBuffer:
		return append([]byte(nil), data.Bytes()...), nil
	case []byte:
		return append([]byte(nil), data...), nil
	case string:
		return []byte(data), nil
	default:
		return nil, fmt.Errorf("unsupported data type %T", data)
	}
}

func (m *Module) console(emit func(string, ...log.Field)) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var msg string
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}
		emit(msg, log.String("source", "console"))
		return goja.Undefined()
	}
}

var (
	_ ports.Module         = (*Module)(nil)
	_ ports.SurfaceLocator = (*Module)(nil)
)
