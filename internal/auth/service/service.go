package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authmodels "safereturn/internal/auth/models"
	personmodels "safereturn/internal/person/models"
	"safereturn/internal/platform/middleware"
	"safereturn/internal/token"
	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/audit"
	"safereturn/pkg/platform/sentinel"
	"safereturn/pkg/requestcontext"
)

type SessionStore interface {
	Create(ctx context.Context, sess *authmodels.Session) error
	FindByID(ctx context.Context, sessionID string) (*authmodels.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type PersonStore interface {
	FindByID(ctx context.Context, personID id.PersonID) (*personmodels.Person, error)
	FindByNationalID(ctx context.Context, nationalID string) (*personmodels.Person, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	AccessToken string               `json:"access_token"`
	ExpiresIn   int64                `json:"expires_in"`
	Person      *personmodels.Person `json:"person"`
}

// Service implements the simulated national-ID login. Knowing a registered
// national ID is the whole credential; this is a stand-in for a real
// identity system, not security infrastructure.
type Service struct {
	sessions   SessionStore
	persons    PersonStore
	tokens     *token.Service
	sessionTTL time.Duration

	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func NewService(sessions SessionStore, persons PersonStore, tokens *token.Service, sessionTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		sessions:   sessions,
		persons:    persons,
		tokens:     tokens,
		sessionTTL: sessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login resolves a national ID to a person, opens a session, and mints an
// access token. Unknown national IDs get the same unauthorized answer as
// malformed ones so the endpoint doesn't confirm registry membership.
func (s *Service) Login(ctx context.Context, nationalID string) (*LoginResult, error) {
	if nationalID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	person, err := s.persons.FindByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup person")
	}

	now := requestcontext.Now(ctx)
	sess := &authmodels.Session{
		ID:        uuid.NewString(),
		PersonID:  person.ID,
		Role:      person.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	accessToken, err := s.tokens.GenerateAccessToken(person.ID, person.Role, sess.ID, s.sessionTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logAudit(ctx, string(audit.EventSessionCreated), person.ID,
		"session_id", sess.ID, "role", person.Role.String())

	return &LoginResult{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.sessionTTL.Seconds()),
		Person:      person,
	}, nil
}

// Validate implements middleware.TokenValidator: the JWT must verify and
// its session must still be live. Logout kills the session, which kills
// every token minted under it.
func (s *Service) Validate(ctx context.Context, tokenString string) (middleware.Identity, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return middleware.Identity{}, err
	}

	sess, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return middleware.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "session revoked or expired")
		}
		return middleware.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if sess.IsExpired(requestcontext.Now(ctx)) {
		return middleware.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "session revoked or expired")
	}

	personID, err := id.ParsePersonID(claims.PersonID)
	if err != nil {
		return middleware.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return middleware.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token role")
	}
	return middleware.Identity{
		PersonID:  personID,
		Role:      role,
		SessionID: sess.ID,
	}, nil
}

// Logout revokes the acting session. Revoking an already-dead session is
// fine; the caller wanted it gone and it is.
func (s *Service) Logout(ctx context.Context) error {
	sessionID := requestcontext.SessionID(ctx)
	if sessionID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}

	s.logAudit(ctx, string(audit.EventSessionRevoked), requestcontext.ActorID(ctx),
		"session_id", sessionID)
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, personID id.PersonID, attributes ...any) {
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		PersonID:  personID,
		Subject:   personID.String(),
		Action:    event,
		RequestID: requestcontext.RequestID(ctx),
	})
}
