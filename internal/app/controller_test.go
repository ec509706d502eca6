package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/internal/ports"
	"github.com/bft-labs/gonesbridge/pkg/lifecycle"
	"github.com/bft-labs/gonesbridge/pkg/log"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
)

// memStore is an in-memory ports.BlobStore.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, c domain.Collection, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(c)+"/"+name] = append([]byte(nil), data...)
	return nil
}

func (s *memStore) Get(_ context.Context, c domain.Collection, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[string(c)+"/"+name], nil
}

type fakeSurface struct {
	focused atomic.Int32
}

func (s *fakeSurface) Focus() error {
	s.focused.Add(1)
	return nil
}

// fakeModule saves SRAM on exit and reports the cartridge name on start.
type fakeModule struct {
	host    ports.Host
	surface *fakeSurface
	exit    chan struct{}
	once    sync.Once
	closed  atomic.Bool
	runs    atomic.Int32
	lookups atomic.Int32

	mu       sync.Mutex
	commands []string
}

func (m *fakeModule) Run(ctx context.Context, cart domain.Cartridge) error {
	m.runs.Add(1)
	m.host.SetRomName(strings.TrimSuffix(cart.Name, ".nes"))

	select {
	case <-m.exit:
	case <-ctx.Done():
		return ctx.Err()
	}
	return m.host.DBPut(ctx, domain.Saves, cart.Name+".sav", []byte("sram"))
}

func (m *fakeModule) Exit() {
	m.record("exit")
	m.once.Do(func() { close(m.exit) })
}

func (m *fakeModule) SaveState() { m.record("save") }
func (m *fakeModule) LoadState() { m.record("load") }

func (m *fakeModule) Close() error {
	m.closed.Store(true)
	return nil
}

// Surface appears on the third lookup.
func (m *fakeModule) Surface() (ports.Surface, bool) {
	if m.lookups.Add(1) < 3 {
		return nil, false
	}
	return m.surface, true
}

func (m *fakeModule) record(cmd string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, cmd)
}

func (m *fakeModule) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

type fakeLoader struct {
	mu      sync.Mutex
	modules []*fakeModule
	failAt  int // 1-based load attempt that fails; 0 never
}

func (l *fakeLoader) Load(_ context.Context, host ports.Host) (ports.Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAt == len(l.modules)+1 {
		return nil, errors.New("bad module")
	}
	m := &fakeModule{host: host, surface: &fakeSurface{}, exit: make(chan struct{})}
	l.modules = append(l.modules, m)
	return m, nil
}

func (l *fakeLoader) Module(i int) *fakeModule {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i >= len(l.modules) {
		return nil
	}
	return l.modules[i]
}

func (l *fakeLoader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.modules)
}

type stateRecorder struct {
	mu      sync.Mutex
	reasons map[lifecycle.State]string
}

func (r *stateRecorder) OnStateChange(_, current lifecycle.State, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reasons == nil {
		r.reasons = make(map[lifecycle.State]string)
	}
	r.reasons[current] = reason
}

func (r *stateRecorder) Reason(s lifecycle.State) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reason, ok := r.reasons[s]
	return reason, ok
}

type harness struct {
	ctrl   *Controller
	host   protocol.Conn
	loader *fakeLoader
	store  *memStore
	events *stateRecorder
}

func newHarness(t *testing.T, loader *fakeLoader) *harness {
	t.Helper()

	host, sandbox := protocol.Pipe(0)
	h := &harness{
		host:   host,
		loader: loader,
		store:  newMemStore(),
		events: &stateRecorder{},
	}
	h.ctrl = NewController(Config{
		SurfacePollInterval: time.Millisecond,
		SurfaceMaxInterval:  2 * time.Millisecond,
		ShutdownTimeout:     time.Second,
	}, loader, h.store, sandbox, log.NoopLogger{}, h.events)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.ctrl.Serve(ctx) }()
	t.Cleanup(func() {
		_ = h.ctrl.Close(context.Background())
		cancel()
		_ = host.Close()
	})
	return h
}

func (h *harness) expect(t *testing.T, tag protocol.Tag) protocol.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msg, err := h.host.Receive(ctx)
	if err != nil {
		t.Fatalf("waiting for %s: %v", tag, err)
	}
	if msg.Tag() != tag {
		t.Fatalf("received %s, want %s", msg.Tag(), tag)
	}
	return msg
}

func (h *harness) expectNothing(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if msg, err := h.host.Receive(ctx); err == nil {
		t.Fatalf("unexpected message %s", msg.Tag())
	}
}

func (h *harness) send(t *testing.T, m protocol.Message) {
	t.Helper()
	if err := h.host.Send(context.Background(), m); err != nil {
		t.Fatalf("send %s: %v", m.Tag(), err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestController_Session(t *testing.T) {
	h := newHarness(t, &fakeLoader{})

	if err := h.ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.expect(t, protocol.TagReady)

	h.send(t, protocol.NewPlay("mario.nes", []byte("NES\x1a")))
	name := h.expect(t, protocol.TagName).(protocol.Name)
	if name.Value() != "mario" {
		t.Errorf("name = %q, want mario", name.Value())
	}
	if h.ctrl.State() != lifecycle.StatePlaying {
		t.Fatalf("state = %v, want Playing", h.ctrl.State())
	}
	if h.ctrl.Session() == "" {
		t.Error("expected a session ID while playing")
	}

	first := h.loader.Module(0)
	waitFor(t, "surface focus", func() bool { return first.surface.focused.Load() == 1 })
	if err := h.ctrl.FocusWindow(); err != nil {
		t.Fatalf("FocusWindow: %v", err)
	}
	if got := first.surface.focused.Load(); got != 2 {
		t.Errorf("focus count = %d, want 2", got)
	}

	h.send(t, protocol.NewSaveState())
	h.send(t, protocol.NewLoadState())
	h.send(t, protocol.NewExit())

	h.expect(t, protocol.TagExit)
	h.expect(t, protocol.TagReady)

	if got := strings.Join(first.Commands(), ","); got != "save,load,exit" {
		t.Errorf("module commands = %s", got)
	}
	if !first.closed.Load() {
		t.Error("exited module was not released")
	}
	if h.loader.Loads() != 2 {
		t.Errorf("loads = %d, want 2 (re-instantiated after exit)", h.loader.Loads())
	}
	if h.ctrl.State() != lifecycle.StateReady {
		t.Errorf("state = %v, want Ready", h.ctrl.State())
	}
	if h.ctrl.Session() != "" {
		t.Error("session ID should be cleared after exit")
	}

	sram, _ := h.store.Get(context.Background(), domain.Saves, "mario.nes.sav")
	if string(sram) != "sram" {
		t.Errorf("save = %q, want sram", sram)
	}

	// A second session runs on the fresh instance.
	h.send(t, protocol.NewPlay("zelda.nes", nil))
	h.expect(t, protocol.TagName)
	if h.loader.Module(1).runs.Load() != 1 {
		t.Error("second play did not run on the new instance")
	}
}

func TestController_PlayWhilePlaying(t *testing.T) {
	h := newHarness(t, &fakeLoader{})
	ctx := context.Background()

	if err := h.ctrl.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.expect(t, protocol.TagReady)

	if err := h.ctrl.Play(ctx, domain.Cartridge{Name: "a.nes"}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.expect(t, protocol.TagName)

	if err := h.ctrl.Play(ctx, domain.Cartridge{Name: "b.nes"}); !errors.Is(err, domain.ErrAlreadyPlaying) {
		t.Errorf("second Play = %v, want ErrAlreadyPlaying", err)
	}

	// Via the protocol the second play is ignored.
	h.send(t, protocol.NewPlay("b.nes", nil))
	h.expectNothing(t)

	if runs := h.loader.Module(0).runs.Load(); runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestController_PlayBeforeLoad(t *testing.T) {
	h := newHarness(t, &fakeLoader{})

	err := h.ctrl.Play(context.Background(), domain.Cartridge{Name: "a.nes"})
	if !errors.Is(err, domain.ErrNotReady) {
		t.Errorf("Play = %v, want ErrNotReady", err)
	}
}

func TestController_LoadFailure(t *testing.T) {
	h := newHarness(t, &fakeLoader{failAt: 1})

	err := h.ctrl.Load(context.Background())
	if !errors.Is(err, domain.ErrLoadFailed) {
		t.Fatalf("Load = %v, want ErrLoadFailed", err)
	}
	if h.ctrl.State() != lifecycle.StateFailed {
		t.Errorf("state = %v, want Failed", h.ctrl.State())
	}
	reason, ok := h.events.Reason(lifecycle.StateFailed)
	if !ok || !strings.Contains(reason, "bad module") {
		t.Errorf("failed event reason = %q, want the load error", reason)
	}
	h.expectNothing(t)

	if err := h.ctrl.Load(context.Background()); !errors.Is(err, domain.ErrProtocolViolation) {
		t.Errorf("retry Load = %v, want ErrProtocolViolation", err)
	}
}

func TestController_ReloadFailure(t *testing.T) {
	h := newHarness(t, &fakeLoader{failAt: 2})
	ctx := context.Background()

	if err := h.ctrl.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.expect(t, protocol.TagReady)
	if err := h.ctrl.Play(ctx, domain.Cartridge{Name: "a.nes"}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.expect(t, protocol.TagName)

	h.send(t, protocol.NewExit())
	h.expect(t, protocol.TagExit)

	waitFor(t, "Failed", func() bool { return h.ctrl.State() == lifecycle.StateFailed })
	h.expectNothing(t)
}

func TestController_CommandsWithoutSession(t *testing.T) {
	h := newHarness(t, &fakeLoader{})

	// No module yet.
	h.ctrl.Exit()
	h.ctrl.SaveState()
	h.ctrl.LoadState()

	if err := h.ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.expect(t, protocol.TagReady)

	// Loaded but idle.
	h.send(t, protocol.NewSaveState())
	h.send(t, protocol.NewLoadState())
	h.send(t, protocol.NewExit())
	h.expectNothing(t)

	if cmds := h.loader.Module(0).Commands(); len(cmds) != 0 {
		t.Errorf("idle module received %v", cmds)
	}
	if h.ctrl.State() != lifecycle.StateReady {
		t.Errorf("state = %v, want Ready", h.ctrl.State())
	}
}

func TestController_InboundHostOnlyMessagesIgnored(t *testing.T) {
	h := newHarness(t, &fakeLoader{})

	if err := h.ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.expect(t, protocol.TagReady)

	h.send(t, protocol.NewReady())
	h.send(t, protocol.NewName("spoof"))
	h.expectNothing(t)

	if h.ctrl.State() != lifecycle.StateReady {
		t.Errorf("state = %v, want Ready", h.ctrl.State())
	}
}

func TestController_HostBridgeRefusedWhileLoading(t *testing.T) {
	h := newHarness(t, &fakeLoader{})
	ctx := context.Background()
	bridge := h.ctrl.Host()

	if err := bridge.DBPut(ctx, domain.Saves, "a.sav", []byte{1}); !errors.Is(err, domain.ErrProtocolViolation) {
		t.Errorf("DBPut = %v, want ErrProtocolViolation", err)
	}
	if _, err := bridge.DBGet(ctx, domain.Saves, "a.sav"); !errors.Is(err, domain.ErrProtocolViolation) {
		t.Errorf("DBGet = %v, want ErrProtocolViolation", err)
	}
	bridge.SetRomName("early")
	h.expectNothing(t)

	if err := h.ctrl.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.expect(t, protocol.TagReady)

	if err := bridge.DBPut(ctx, domain.States, "a.0.state.gz", []byte{1}); err != nil {
		t.Fatalf("DBPut after load: %v", err)
	}
	got, err := bridge.DBGet(ctx, domain.States, "a.0.state.gz")
	if err != nil || len(got) != 1 {
		t.Fatalf("DBGet after load = %v, %v", got, err)
	}
	missing, err := bridge.DBGet(ctx, domain.States, "missing")
	if err != nil || missing != nil {
		t.Fatalf("DBGet missing = %v, %v", missing, err)
	}
}

func TestController_FocusWindowWithoutSurface(t *testing.T) {
	h := newHarness(t, &fakeLoader{})

	if err := h.ctrl.FocusWindow(); err != nil {
		t.Errorf("FocusWindow = %v, want nil", err)
	}
}

func TestController_CloseStopsSession(t *testing.T) {
	h := newHarness(t, &fakeLoader{})
	ctx := context.Background()

	if err := h.ctrl.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.expect(t, protocol.TagReady)
	if err := h.ctrl.Play(ctx, domain.Cartridge{Name: "metroid.nes"}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.expect(t, protocol.TagName)

	if err := h.ctrl.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mod := h.loader.Module(0)
	if !mod.closed.Load() {
		t.Error("module not released on close")
	}
	if h.loader.Loads() != 1 {
		t.Errorf("loads = %d, want no re-instantiation after close", h.loader.Loads())
	}
	sram, _ := h.store.Get(ctx, domain.Saves, "metroid.nes.sav")
	if string(sram) != "sram" {
		t.Errorf("save on close = %q", sram)
	}
	if err := h.ctrl.Play(ctx, domain.Cartridge{Name: "a.nes"}); !errors.Is(err, domain.ErrNotReady) {
		t.Errorf("Play after close = %v, want ErrNotReady", err)
	}
}

func TestController_ServeReturnsOnClosedConn(t *testing.T) {
	host, sandbox := protocol.Pipe(1)
	ctrl := NewController(Config{}, &fakeLoader{}, newMemStore(), sandbox, nil, nil)

	done := make(chan error, 1)
	go func() { done <- ctrl.Serve(context.Background()) }()

	_ = host.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestController_HostBridgeRefusedAfterLoadFailure(t *testing.T) {
	h := newHarness(t, &fakeLoader{failAt: 1})
	ctx := context.Background()

	if err := h.ctrl.Load(ctx); !errors.Is(err, domain.ErrLoadFailed) {
		t.Fatalf("Load = %v, want ErrLoadFailed", err)
	}
	if _, err := h.ctrl.Host().DBGet(ctx, domain.Saves, "a.sav"); !errors.Is(err, domain.ErrProtocolViolation) {
		t.Errorf("DBGet in Failed = %v, want ErrProtocolViolation", err)
	}
	h.ctrl.Host().SetRomName("late")
	h.expectNothing(t)
}

func TestController_CloseRacingPlay(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		loader := &fakeLoader{}
		_, sandbox := protocol.Pipe(16)
		ctrl := NewController(Config{
			SurfacePollInterval: time.Millisecond,
			SurfaceMaxInterval:  2 * time.Millisecond,
			ShutdownTimeout:     time.Second,
		}, loader, newMemStore(), sandbox, nil, nil)
		if err := ctrl.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}

		var wg sync.WaitGroup
		var playErr, closeErr error
		start := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			playErr = ctrl.Play(ctx, domain.Cartridge{Name: "mario.nes"})
		}()
		go func() {
			defer wg.Done()
			<-start
			closeErr = ctrl.Close(ctx)
		}()
		close(start)
		wg.Wait()

		if closeErr != nil {
			t.Fatalf("round %d: Close = %v", i, closeErr)
		}
		mod := loader.Module(0)
		if playErr == nil {
			// The session started first, so Close must have waited for it.
			if mod.runs.Load() != 1 || ctrl.State() != lifecycle.StateExited {
				t.Fatalf("round %d: runs = %d, state = %v after Close", i, mod.runs.Load(), ctrl.State())
			}
		} else {
			if !errors.Is(playErr, domain.ErrNotReady) {
				t.Fatalf("round %d: Play = %v, want ErrNotReady", i, playErr)
			}
			if mod.runs.Load() != 0 {
				t.Fatalf("round %d: module ran after Close", i)
			}
		}
		if !mod.closed.Load() {
			t.Fatalf("round %d: module not released", i)
		}
	}
}
