package component

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/repoauth/logger"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(context.Context) error {
	*m.events = append(*m.events, "start:"+m.name)
	return m.startErr
}
func (m *mockComponent) Stop(context.Context) error {
	*m.events = append(*m.events, "stop:"+m.name)
	return m.stopErr
}
func (m *mockComponent) Health(context.Context) Health {
	return Health{Name: m.name, Status: StatusHealthy}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	var events []string
	r := NewRegistry(logger.Nop())
	if err := r.Register(&mockComponent{name: "client", events: &events}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "client", events: &events}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestRegistry_StartStopOrder(t *testing.T) {
	var events []string
	r := NewRegistry(logger.Nop())
	for _, name := range []string{"telemetry", "client"} {
		if err := r.Register(&mockComponent{name: name, events: &events}); err != nil {
			t.Fatal(err)
		}
	}
	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := []string{"start:telemetry", "start:client", "stop:client", "stop:telemetry"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}

func TestRegistry_StartFailureStopsStartedOnly(t *testing.T) {
	var events []string
	boom := errors.New("boom")
	r := NewRegistry(logger.Nop())
	_ = r.Register(&mockComponent{name: "a", events: &events})
	_ = r.Register(&mockComponent{name: "b", startErr: boom, events: &events})
	_ = r.Register(&mockComponent{name: "c", events: &events})

	ctx := context.Background()
	if err := r.StartAll(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	events = events[:0]
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(events) != 1 || events[0] != "stop:a" {
		t.Errorf("expected only a to stop, got %v", events)
	}
}

func TestRegistry_StopErrorsJoined(t *testing.T) {
	var events []string
	e1, e2 := errors.New("e1"), errors.New("e2")
	r := NewRegistry(nil)
	_ = r.Register(&mockComponent{name: "a", stopErr: e1, events: &events})
	_ = r.Register(&mockComponent{name: "b", stopErr: e2, events: &events})

	ctx := context.Background()
	_ = r.StartAll(ctx)
	err := r.StopAll(ctx)
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Errorf("expected both errors, got %v", err)
	}
}

func TestRegistry_HealthAll(t *testing.T) {
	var events []string
	r := NewRegistry(logger.Nop())
	_ = r.Register(&mockComponent{name: "client", events: &events})
	health := r.HealthAll(context.Background())
	if len(health) != 1 || health[0].Status != StatusHealthy {
		t.Errorf("unexpected health %+v", health)
	}
}
