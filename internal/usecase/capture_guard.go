// File: internal/usecase/capture_guard.go
package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"directory-pass/internal/domain"
)

// CaptureTrigger is a capture-intent signal reported by the viewing client.
type CaptureTrigger string

const (
	TriggerPrint      CaptureTrigger = "print"
	TriggerScreenshot CaptureTrigger = "screenshot"
	TriggerCopy       CaptureTrigger = "copy"
	// TriggerHidden/TriggerVisible track the document losing and regaining
	// foreground visibility. Lower severity: content is obscured, not revoked.
	TriggerHidden  CaptureTrigger = "hidden"
	TriggerVisible CaptureTrigger = "visible"
)

// GuardState is the per-viewing-session state.
type GuardState string

const (
	GuardWatching GuardState = "watching"
	GuardRevoking GuardState = "revoking"
	GuardBlocked  GuardState = "blocked"
	// GuardClosed marks a session that ended normally. Distinct from Blocked:
	// the viewer did nothing wrong, the session is simply over.
	GuardClosed GuardState = "closed"
)

// CaptureGuard revokes a viewer's own pass when a capture attempt is
// reported. Best-effort, defense in depth: the triggers originate in the
// untrusted client and can be suppressed there; this side only guarantees
// that once a hard trigger arrives, the pass is gone and the session stays
// blocked. A guard covers one viewing session; a fresh grant starts a fresh
// session with a fresh guard.
type CaptureGuard struct {
	mu     sync.Mutex
	userID string
	state  GuardState
	hidden bool
	passes AccessPassUseCase
	log    *zerolog.Logger
}

func NewCaptureGuard(userID string, passes AccessPassUseCase, logger *zerolog.Logger) *CaptureGuard {
	l := logger.With().Str("component", "CaptureGuard").Str("user_id", userID).Logger()
	return &CaptureGuard{
		userID: userID,
		state:  GuardWatching,
		passes: passes,
		log:    &l,
	}
}

// State returns the current session state.
func (g *CaptureGuard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Obscured reports whether the content should currently be hidden from view,
// either because the document is backgrounded or because access was revoked.
func (g *CaptureGuard) Obscured() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hidden || g.state == GuardBlocked
}

// Report feeds a trigger into the state machine. Hard triggers (print,
// screenshot, copy) revoke the pass exactly once and block the session.
// Visibility changes only toggle obscuring.
func (g *CaptureGuard) Report(ctx context.Context, trigger CaptureTrigger) (GuardState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch trigger {
	case TriggerHidden:
		g.hidden = true
		return g.state, nil
	case TriggerVisible:
		g.hidden = false
		return g.state, nil
	case TriggerPrint, TriggerScreenshot, TriggerCopy:
		if g.state == GuardBlocked || g.state == GuardClosed {
			return g.state, nil
		}
		g.state = GuardRevoking
		err := g.passes.Revoke(ctx, g.userID, "capture")
		// Blocked even when the revoke found nothing active: the pass may
		// have lapsed between the trigger and the write.
		g.state = GuardBlocked
		if err != nil && err != domain.ErrNoActivePass {
			g.log.Error().Err(err).Str("trigger", string(trigger)).Msg("capture revoke failed")
			return g.state, err
		}
		g.log.Warn().Str("trigger", string(trigger)).Msg("capture detected, pass revoked")
		return g.state, nil
	default:
		return g.state, domain.ErrInvalidArgument
	}
}

// Close ends the viewing session from whatever state it was in. Terminal;
// the caller is expected to drop the guard afterwards.
func (g *CaptureGuard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hidden = false
	g.state = GuardClosed
}
