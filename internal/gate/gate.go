// Package gate decides whether a principal may send push notifications or
// see the control that triggers them.
package gate

import (
	"context"
	"log/slog"

	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
)

// Check names reported to metrics and logs.
const (
	CheckTriggerSend = "may_trigger_send"
	CheckShowControl = "may_show_send_control"
)

// CapabilityChecker answers capability questions for a set of roles.
type CapabilityChecker interface {
	Capability() string
	AnyRoleHas(ctx context.Context, roles []string, capability string) bool
}

// DecisionObserver records gate outcomes.
type DecisionObserver interface {
	ObserveGate(check string, allowed bool)
}

// Gate evaluates the push capability for principals. It holds no state
// between calls; every decision reads the capability store.
type Gate struct {
	store    CapabilityChecker
	observer DecisionObserver
	logger   *slog.Logger
}

// New constructs a Gate. observer may be nil.
func New(store CapabilityChecker, observer DecisionObserver, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{store: store, observer: observer, logger: logger}
}

// MayTriggerSend reports whether p may cause a notification to be sent.
func (g *Gate) MayTriggerSend(ctx context.Context, p *principal.Principal) bool {
	return g.decide(ctx, CheckTriggerSend, p)
}

// MayShowSendControl reports whether the send control is rendered for p.
func (g *Gate) MayShowSendControl(ctx context.Context, p *principal.Principal) bool {
	return g.decide(ctx, CheckShowControl, p)
}

func (g *Gate) decide(ctx context.Context, check string, p *principal.Principal) bool {
	allowed := p != nil && g.store.AnyRoleHas(ctx, p.Roles, g.store.Capability())
	if g.observer != nil {
		g.observer.ObserveGate(check, allowed)
	}
	if !allowed {
		g.logger.Debug("gate denied", slog.String("check", check), slog.Int64("user_id", userID(p)))
	}
	return allowed
}

func userID(p *principal.Principal) int64 {
	if p == nil {
		return 0
	}
	return p.UserID
}
