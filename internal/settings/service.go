// Package settings implements the administrator page that chooses which
// roles may send push notifications.
package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ktoodev/onesignal-push-permissions/internal/capability"
	"github.com/ktoodev/onesignal-push-permissions/internal/observability"
	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
)

// Names shared with the rendered form and the admin menu.
const (
	ParentSlug  = "onesignal-push"
	Slug        = "push-notification-permissions"
	SaveAction  = "push_notifications_save_permissions"
	NonceAction = "save_push_permissions_options"
	NonceField  = "push_permissions_admin_nonce"
	RolesField  = "onesignal-push-notification-roles[]"
)

// CapabilityStore is the part of capability.Store the page uses.
type CapabilityStore interface {
	Capability() string
	AllRoles(ctx context.Context) ([]capability.RoleCapability, error)
	ReplaceAll(ctx context.Context, submitted []string) (capability.Change, error)
	AnyRoleHas(ctx context.Context, roles []string, capability string) bool
}

// ActionTokens issues and checks form tokens bound to a session and action.
type ActionTokens interface {
	ActionToken(ctx context.Context, sess *shared.Session, action string) (string, error)
	VerifyActionToken(ctx context.Context, sess *shared.Session, action, token string) error
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// SaveObserver counts save outcomes.
type SaveObserver interface {
	ObserveSave(outcome string)
}

// Service holds the page rules independent of HTTP.
type Service struct {
	store   CapabilityStore
	tokens  ActionTokens
	audit   AuditRecorder
	metrics SaveObserver
	logger  *slog.Logger
}

// NewService constructs a Service. audit and metrics may be nil.
func NewService(store CapabilityStore, tokens ActionTokens, audit AuditRecorder, metrics SaveObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, tokens: tokens, audit: audit, metrics: metrics, logger: logger}
}

// PageState is what the settings form shows.
type PageState struct {
	Roles []capability.RoleCapability
	Nonce string
}

// SaveInput carries one submitted form.
type SaveInput struct {
	Principal *principal.Principal
	Session   *shared.Session
	Token     string
	Roles     []string
}

// Authorize returns shared.ErrAccessDenied unless p may manage options.
func (s *Service) Authorize(ctx context.Context, p *principal.Principal) error {
	if p == nil || !s.store.AnyRoleHas(ctx, p.Roles, shared.CapManageOptions) {
		return shared.ErrAccessDenied
	}
	return nil
}

// Load reads the current role mapping and mints the save token.
func (s *Service) Load(ctx context.Context, p *principal.Principal, sess *shared.Session) (PageState, error) {
	if err := s.Authorize(ctx, p); err != nil {
		return PageState{}, err
	}
	roles, err := s.store.AllRoles(ctx)
	if err != nil {
		return PageState{}, err
	}
	nonce, err := s.tokens.ActionToken(ctx, sess, NonceAction)
	if err != nil {
		return PageState{}, fmt.Errorf("settings: issue token: %w", err)
	}
	return PageState{Roles: roles, Nonce: nonce}, nil
}

// Save checks the requester, then the form token, then replaces the set of
// roles holding the push capability with in.Roles. Nothing is written when
// either check fails.
func (s *Service) Save(ctx context.Context, in SaveInput) (capability.Change, error) {
	if err := s.Authorize(ctx, in.Principal); err != nil {
		s.observe(observability.SaveForbidden)
		return capability.Change{}, err
	}
	if err := s.tokens.VerifyActionToken(ctx, in.Session, NonceAction, in.Token); err != nil {
		s.observe(observability.SaveForged)
		return capability.Change{}, fmt.Errorf("%w: %w", shared.ErrAuthorizationDenied, err)
	}

	change, err := s.store.ReplaceAll(ctx, in.Roles)
	if err != nil {
		s.observe(observability.SaveFailed)
		return capability.Change{}, err
	}
	s.observe(observability.SaveSaved)

	if len(change.Ignored) > 0 {
		s.logger.Warn("ignored unknown roles", slog.Any("roles", change.Ignored))
	}
	s.record(ctx, in.Principal, change)
	return change, nil
}

func (s *Service) record(ctx context.Context, p *principal.Principal, change capability.Change) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   shared.AuditActionCapabilityReplace,
		Entity:   "capability",
		EntityID: s.store.Capability(),
		Meta: map[string]any{
			"holders": nonNil(change.Holders),
			"revoked": nonNil(change.Revoked),
		},
	})
	if err != nil {
		s.logger.Error("audit capability replace", slog.Any("error", err))
	}
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveSave(outcome)
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
