package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dop251/goja"

	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/internal/ports"
	"github.com/bft-labs/gonesbridge/pkg/log"
)

// Loader compiles a script once and instantiates a fresh runtime per Load.
type Loader struct {
	name    string
	program *goja.Program
	logger  log.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger routes console output and runtime diagnostics to logger.
func WithLogger(logger log.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader compiles source. name is used in stack traces.
func NewLoader(name, source string, opts ...Option) (*Loader, error) {
	program, err := goja.Compile(name, source, false)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s: %v", domain.ErrLoadFailed, name, err)
	}
	l := &Loader{name: name, program: program}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = log.OrNoop(l.logger).With(log.String("module", name))
	return l, nil
}

// LoadFile reads and compiles the script at path.
func LoadFile(path string, opts ...Option) (*Loader, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read module: %v", domain.ErrLoadFailed, err)
	}
	return NewLoader(filepath.Base(path), string(source), opts...)
}

// Name returns the script name.
func (l *Loader) Name() string {
	return l.name
}

// Load creates a runtime, installs the host's capabilities and evaluates the
// script's top level.
func (l *Loader) Load(ctx context.Context, host ports.Host) (ports.Module, error) {
	vm := goja.New()
	m := newModule(vm, host, l.logger)
	m.ctx = ctx

	if err := m.install(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLoadFailed, err)
	}

	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	_, err := vm.RunProgram(l.program)
	stop()
	if err != nil {
		return nil, fmt.Errorf("%w: evaluate %s: %v", domain.ErrLoadFailed, l.name, err)
	}

	if err := m.bind(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrLoadFailed, l.name, err)
	}
	return m, nil
}

var _ ports.ModuleLoader = (*Loader)(nil)
