package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/figmentlabs/figment/internal/model/app"
	session "github.com/figmentlabs/figment/internal/service/session"
)

func TestCreateStartsAwaitingDescription(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()

	sess, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if sess.Phase != app.PhaseAwaitingDescription {
		t.Fatalf("unexpected phase: %s", sess.Phase)
	}

	turns, err := svc.Transcript(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty transcript, got %d turns", len(turns))
	}
}

func TestAppendModelActivatesSession(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	if err := svc.AppendUser(ctx, sess.ID, "a todo list"); err != nil {
		t.Fatalf("AppendUser err: %v", err)
	}

	got, _ := svc.Get(ctx, sess.ID)
	if got.Phase != app.PhaseAwaitingDescription {
		t.Fatalf("user turn must not activate session, phase=%s", got.Phase)
	}

	if err := svc.AppendModel(ctx, sess.ID, `<ul id="list"></ul>`); err != nil {
		t.Fatalf("AppendModel err: %v", err)
	}

	got, _ = svc.Get(ctx, sess.ID)
	if got.Phase != app.PhaseActive {
		t.Fatalf("expected active phase, got %s", got.Phase)
	}
}

func TestTranscriptAppendOnly(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	_ = svc.AppendUser(ctx, sess.ID, "first")
	_ = svc.AppendModel(ctx, sess.ID, "second")

	before, _ := svc.Transcript(ctx, sess.ID)

	// Mutating the returned slice must not leak into the service.
	before[0].Content = "tampered"

	_ = svc.AppendUser(ctx, sess.ID, "third")
	after, _ := svc.Transcript(ctx, sess.ID)

	if len(after) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(after))
	}
	if after[0].Content != "first" || after[1].Content != "second" {
		t.Fatalf("prior entries were altered: %+v", after)
	}
	if after[0].Role != app.RoleUser || after[1].Role != app.RoleModel {
		t.Fatalf("turn order not preserved: %+v", after)
	}
}

func TestTerminateRejectsFurtherAppends(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	if err := svc.Terminate(ctx, sess.ID); err != nil {
		t.Fatalf("Terminate err: %v", err)
	}

	if err := svc.AppendModel(ctx, sess.ID, "late completion"); !errors.Is(err, session.ErrSessionTerminated) {
		t.Fatalf("expected ErrSessionTerminated, got %v", err)
	}

	turns, _ := svc.Transcript(ctx, sess.ID)
	if len(turns) != 0 {
		t.Fatalf("terminated session transcript mutated: %d turns", len(turns))
	}
}

func TestGetUnknownSession(t *testing.T) {
	svc := session.NewService()

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestBeginExchangeSerializes(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	if err := svc.BeginExchange(ctx, sess.ID); err != nil {
		t.Fatalf("BeginExchange err: %v", err)
	}
	if err := svc.BeginExchange(ctx, sess.ID); !errors.Is(err, session.ErrExchangeInFlight) {
		t.Fatalf("expected ErrExchangeInFlight, got %v", err)
	}

	svc.EndExchange(ctx, sess.ID)
	if err := svc.BeginExchange(ctx, sess.ID); err != nil {
		t.Fatalf("BeginExchange after release err: %v", err)
	}
}

func TestExchangeGuardUnderConcurrency(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess, _ := svc.Create(ctx)

	var inFlight atomic.Int32
	var maxInFlight atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.BeginExchange(ctx, sess.ID); err != nil {
				return
			}
			cur := inFlight.Add(1)
			for {
				prev := maxInFlight.Load()
				if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
					break
				}
			}
			inFlight.Add(-1)
			svc.EndExchange(ctx, sess.ID)
		}()
	}
	wg.Wait()

	if maxInFlight.Load() > 1 {
		t.Fatalf("more than one exchange in flight: %d", maxInFlight.Load())
	}
}

func TestExchangesIndependentAcrossSessions(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	a, _ := svc.Create(ctx)
	b, _ := svc.Create(ctx)

	if err := svc.BeginExchange(ctx, a.ID); err != nil {
		t.Fatalf("BeginExchange a err: %v", err)
	}
	if err := svc.BeginExchange(ctx, b.ID); err != nil {
		t.Fatalf("sessions must not share the exchange guard: %v", err)
	}
}
