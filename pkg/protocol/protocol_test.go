package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"
)

func TestTags_Stable(t *testing.T) {
	want := map[Tag]string{
		TagReady:     "gonesReady",
		TagPlay:      "gonesPlay",
		TagName:      "gonesName",
		TagExit:      "gonesExit",
		TagSaveState: "gonesSaveState",
		TagLoadState: "gonesloadState",
	}
	if len(Tags()) != len(want) {
		t.Fatalf("Tags() has %d entries, want %d", len(Tags()), len(want))
	}
	for _, tag := range Tags() {
		if string(tag) != want[tag] {
			t.Errorf("tag %q changed, want %q", tag, want[tag])
		}
	}
}

func TestPlay_IsImmutable(t *testing.T) {
	rom := []byte{0x4e, 0x45, 0x53, 0x1a}
	msg := NewPlay("mario.nes", rom)

	rom[0] = 0
	if msg.Data()[0] != 0x4e {
		t.Fatal("Play shares the caller's buffer")
	}

	out := msg.Data()
	out[1] = 0
	if msg.Data()[1] != 0x45 {
		t.Fatal("Play.Data exposes internal buffer")
	}
}

func TestMarshal_Envelope(t *testing.T) {
	b, err := Marshal(NewPlay("mario.nes", []byte("NES")))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["type"] != "gonesPlay" || raw["name"] != "mario.nes" || raw["data"] != "TkVT" {
		t.Fatalf("unexpected envelope %s", b)
	}

	b, err = Marshal(NewExit())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"type":"gonesExit"}` {
		t.Fatalf("Exit envelope = %s", b)
	}
}

func TestUnmarshal(t *testing.T) {
	msg, err := Unmarshal([]byte(`{"type":"gonesPlay","name":"zelda.nes","data":"TkVT"}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	play, ok := msg.(Play)
	if !ok {
		t.Fatalf("got %T, want Play", msg)
	}
	if play.Name() != "zelda.nes" || string(play.Data()) != "NES" {
		t.Fatalf("unexpected play %v", play)
	}

	msg, err = Unmarshal([]byte(`{"type":"gonesName","value":""}`))
	if err != nil {
		t.Fatalf("Unmarshal name: %v", err)
	}
	if name, ok := msg.(Name); !ok || name.Value() != "" {
		t.Fatalf("got %#v", msg)
	}

	if _, err := Unmarshal([]byte(`{"type":"gonesLoadState"}`)); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag for wrong-case tag, got %v", err)
	}
	if _, err := Unmarshal([]byte(`{"type":"gonesPlay"}`)); err == nil {
		t.Fatal("expected error for play without name")
	}
	if _, err := Unmarshal([]byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}

type recordingHandler struct {
	seen []Tag
}

func (r *recordingHandler) OnReady(Ready)         { r.seen = append(r.seen, TagReady) }
func (r *recordingHandler) OnPlay(Play)           { r.seen = append(r.seen, TagPlay) }
func (r *recordingHandler) OnName(Name)           { r.seen = append(r.seen, TagName) }
func (r *recordingHandler) OnExit(Exit)           { r.seen = append(r.seen, TagExit) }
func (r *recordingHandler) OnSaveState(SaveState) { r.seen = append(r.seen, TagSaveState) }
func (r *recordingHandler) OnLoadState(LoadState) { r.seen = append(r.seen, TagLoadState) }

func TestDispatch(t *testing.T) {
	h := &recordingHandler{}
	msgs := []Message{NewReady(), NewPlay("a", nil), NewName("A"), NewExit(), NewSaveState(), NewLoadState()}
	for _, m := range msgs {
		if err := Dispatch(m, h); err != nil {
			t.Fatalf("Dispatch(%s): %v", m.Tag(), err)
		}
	}
	for i, m := range msgs {
		if h.seen[i] != m.Tag() {
			t.Fatalf("dispatch %d went to %s, want %s", i, h.seen[i], m.Tag())
		}
	}
	if err := Dispatch(nil, h); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("Dispatch(nil) = %v", err)
	}
}

func TestPipe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	host, sandbox := Pipe(4)

	if err := sandbox.Send(ctx, NewReady()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := host.Send(ctx, NewPlay("mario.nes", []byte{1})); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := host.Receive(ctx)
	if err != nil || got.Tag() != TagReady {
		t.Fatalf("host received %v, %v", got, err)
	}
	got, err = sandbox.Receive(ctx)
	if err != nil || got.Tag() != TagPlay {
		t.Fatalf("sandbox received %v, %v", got, err)
	}

	if err := sandbox.Send(ctx, NewExit()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	_ = sandbox.Close()

	// Queued messages survive Close.
	got, err = host.Receive(ctx)
	if err != nil || got.Tag() != TagExit {
		t.Fatalf("host received %v, %v after close", got, err)
	}
	if _, err := host.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := host.Send(ctx, NewExit()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on send, got %v", err)
	}
}

func TestPipe_ReceiveHonoursContext(t *testing.T) {
	host, _ := Pipe(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := host.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestStreamConn(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	hostR, sandboxW := io.Pipe()
	sandboxR, hostW := io.Pipe()

	host := NewStreamConn(hostR, hostW)
	sandbox := NewStreamConn(sandboxR, sandboxW)
	defer host.Close()
	defer sandbox.Close()

	go func() {
		_ = host.Send(ctx, NewPlay("mario.nes", bytes.Repeat([]byte{0xEA}, 40*1024)))
	}()

	msg, err := sandbox.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	play, ok := msg.(Play)
	if !ok || play.Name() != "mario.nes" || play.Size() != 40*1024 {
		t.Fatalf("unexpected message %v", msg)
	}

	go func() {
		_ = sandbox.Send(ctx, NewName("Super Mario Bros."))
	}()
	msg, err = host.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if name, ok := msg.(Name); !ok || name.Value() != "Super Mario Bros." {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestStreamConn_MalformedLine(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	input := bytes.NewBufferString("{\"type\":\"somethingElse\"}\n\n{\"type\":\"gonesReady\"}\n")
	conn := NewStreamConn(input, io.Discard)

	if _, err := conn.Receive(ctx); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
	msg, err := conn.Receive(ctx)
	if err != nil || msg.Tag() != TagReady {
		t.Fatalf("Receive = %v, %v", msg, err)
	}
	if _, err := conn.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed at EOF, got %v", err)
	}
}

func TestStreamConn_SendAfterPeerStopsWriting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var out bytes.Buffer
	conn := NewStreamConn(bytes.NewBufferString("{\"type\":\"gonesExit\"}\n"), &out)

	msg, err := conn.Receive(ctx)
	if err != nil || msg.Tag() != TagExit {
		t.Fatalf("Receive = %v, %v", msg, err)
	}
	if _, err := conn.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed at EOF, got %v", err)
	}

	if err := conn.Send(ctx, NewExit()); err != nil {
		t.Fatalf("Send after peer EOF = %v", err)
	}
	if got := out.String(); got != "{\"type\":\"gonesExit\"}\n" {
		t.Errorf("written = %q", got)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close = %v", err)
	}
	if err := conn.Send(ctx, NewReady()); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
}
