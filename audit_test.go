package pgjwt

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/pgjwt/secret"
)

type recordingSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *recordingSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *recordingSink) snapshot() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditEvent(nil), s.events...)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestAuditDispatcherPreservesOrderAndDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	d := newAuditDispatcher(AuditConfig{BufferSize: 16}, sink)

	for _, typ := range []string{"a", "b", "c"} {
		d.Emit(context.Background(), AuditEvent{EventType: typ})
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := sink.snapshot()
	if len(got) != 3 || got[0].EventType != "a" || got[1].EventType != "b" || got[2].EventType != "c" {
		t.Fatalf("unexpected events %+v", got)
	}

	d.Emit(context.Background(), AuditEvent{EventType: "late"})
	if len(sink.snapshot()) != 3 {
		t.Fatal("emit after close must be ignored")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{BufferSize: 1, DropIfFull: true}, sink)

	// The writer takes one event and blocks on the gate, one more fits in the buffer.
	deadline := time.Now().Add(2 * time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		d.Emit(context.Background(), AuditEvent{EventType: "x"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected events to be dropped once the buffer filled")
	}

	close(sink.gate)
	_ = d.Close()
}

func TestAuditDispatcherBlockingHonorsContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{BufferSize: 1}, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	for i := 0; i < 3; i++ {
		d.Emit(ctx, AuditEvent{EventType: "x"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected a blocked emit to give up when the context expired")
	}

	close(sink.gate)
	_ = d.Close()
}

func TestChannelSinkCountsDrops(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), AuditEvent{EventType: "first"})
	sink.Emit(context.Background(), AuditEvent{EventType: "second"})
	if sink.Dropped() != 1 {
		t.Fatalf("expected one dropped event, got %d", sink.Dropped())
	}
	if ev := <-sink.Events(); ev.EventType != "first" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestBuildWritesAuditFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	cfg := defaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.Path = path

	store := &secret.Store{}
	store.Init([]byte("s3cr3t"))
	v, err := New().WithConfig(cfg).WithSecretStore(store).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	h := v.Startup()
	_, _ = v.Validate(h, Request{Token: "not-a-token", Role: "analyst"}, &fakeAllocator{})
	v.Shutdown(h)
	if err := v.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat audit file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected audit file mode 0600, got %o", perm)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit file: %v", err)
	}
	defer f.Close()

	var types []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode audit line %q: %v", scanner.Text(), err)
		}
		types = append(types, ev.EventType)
	}
	want := []string{auditEventModuleStartup, auditEventValidateDenied, auditEventModuleShutdown}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, types)
		}
	}
}
