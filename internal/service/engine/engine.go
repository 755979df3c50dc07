// Package engine drives the session state machine: it turns raw UI events
// into model prompts, runs the completion, and turns the output back into a
// renderable view.
package engine

import (
	"context"
	"errors"
	"log"

	"github.com/figmentlabs/figment/internal/analysis/markup"
	"github.com/figmentlabs/figment/internal/model/app"
	"github.com/figmentlabs/figment/internal/service/ai"
	session "github.com/figmentlabs/figment/internal/service/session"
)

var (
	// ErrWrongPhase rejects a message that is invalid in the session's
	// current phase. Session state is untouched.
	ErrWrongPhase = errors.New("message not valid in current phase")
	// ErrMissingElementID rejects an interaction without an element id.
	ErrMissingElementID = errors.New("elementId is required")
	// ErrNoChange signals that the model decided the view should not change.
	ErrNoChange = errors.New("view unchanged")
	// ErrNoHTMLFound means the completion carried no renderable payload. The
	// exchange counts as failed: no model turn enters the transcript.
	ErrNoHTMLFound = errors.New("no HTML found in completion")
)

// Completer abstracts the model client so the engine can be exercised with
// stub completions in tests.
type Completer interface {
	Complete(ctx context.Context, sessionID string, turns []app.Turn) (string, error)
}

// Engine orchestrates one exchange at a time per session.
type Engine struct {
	sessions  *session.Service
	completer Completer
}

// New wires the engine to its session registry and model client.
func New(sessions *session.Service, completer Completer) *Engine {
	return &Engine{sessions: sessions, completer: completer}
}

// HandleDescription processes the opening application description. On
// success the session becomes Active and the home view is returned. On model
// failure the session stays in AwaitingDescription and the user may retry.
func (e *Engine) HandleDescription(ctx context.Context, sessionID, description string) (app.ViewResult, error) {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return app.ViewResult{}, err
	}
	if sess.Phase != app.PhaseAwaitingDescription {
		return app.ViewResult{}, ErrWrongPhase
	}

	return e.runExchange(ctx, sessionID, ai.InitialPrompt(description), false)
}

// HandleInteraction processes an element activation while the session is
// Active. A failed exchange leaves only the user turn behind, so the next
// action re-sends from the last good state.
func (e *Engine) HandleInteraction(ctx context.Context, sessionID string, event app.InteractionEvent) (app.ViewResult, error) {
	if event.ElementID == "" {
		return app.ViewResult{}, ErrMissingElementID
	}

	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return app.ViewResult{}, err
	}
	if sess.Phase != app.PhaseActive {
		return app.ViewResult{}, ErrWrongPhase
	}

	return e.runExchange(ctx, sessionID, ai.InteractionPrompt(event), true)
}

// runExchange holds the per-session guard from dispatch through transcript
// update: append the user turn, call the model, append the model turn only
// on success.
func (e *Engine) runExchange(ctx context.Context, sessionID, userTurn string, allowNoChange bool) (app.ViewResult, error) {
	if err := e.sessions.BeginExchange(ctx, sessionID); err != nil {
		return app.ViewResult{}, err
	}
	defer e.sessions.EndExchange(ctx, sessionID)

	if err := e.sessions.AppendUser(ctx, sessionID, userTurn); err != nil {
		return app.ViewResult{}, err
	}

	turns, err := e.sessions.Transcript(ctx, sessionID)
	if err != nil {
		return app.ViewResult{}, err
	}

	raw, err := e.completer.Complete(ctx, sessionID, turns)
	if err != nil {
		e.logFailure(ctx, sessionID, err)
		return app.ViewResult{}, err
	}

	if allowNoChange && markup.IsNoChange(raw) {
		if err := e.sessions.AppendModel(ctx, sessionID, markup.NoChangeSentinel); err != nil {
			// Session terminated while the call was in flight; discard.
			return app.ViewResult{}, err
		}
		return app.ViewResult{}, ErrNoChange
	}

	extracted := markup.Extract(raw)
	if extracted.IsError {
		e.logFailure(ctx, sessionID, ErrNoHTMLFound)
		return app.ViewResult{}, ErrNoHTMLFound
	}

	if err := e.sessions.AppendModel(ctx, sessionID, extracted.HTML); err != nil {
		// Session terminated while the call was in flight; discard.
		return app.ViewResult{}, err
	}

	return app.ViewResult{HTML: extracted.HTML}, nil
}

func (e *Engine) logFailure(ctx context.Context, sessionID string, err error) {
	phase := app.Phase("unknown")
	if sess, getErr := e.sessions.Get(ctx, sessionID); getErr == nil {
		phase = sess.Phase
	}
	log.Printf("[engine] exchange failed session=%s phase=%s: %v", sessionID, phase, err)
}
