package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Auther orchestrates the passwordless login flow and per-request actor
// resolution. It owns no HTTP surface: the embedding application calls
// ActorFromToken once per request at the boundary and threads the
// resulting Actor into authorization checks.
type Auther struct {
	repo           RepositoryManager
	notifier       Notifier
	signingKey     []byte
	issuer         string
	audience       []string
	logger         Logger
	tokenService   TokenService
	tokenValidator TokenService
	activitySink   ActivitySink
	requestCode    *RequestCodeHandler
	verifyCode     *VerifyCodeHandler
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, notifier Notifier, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	a := &Auther{
		repo:         repo,
		notifier:     notifier,
		signingKey:   []byte(opts.GetSigningKey()),
		issuer:       opts.GetIssuer(),
		audience:     opts.GetAudience(),
		logger:       defLogger{},
		tokenService: tokenService,
		activitySink: noopActivitySink{},
	}

	a.requestCode = NewRequestCodeHandler(repo, notifier).
		WithCodeGenerator(NewCodeGenerator(opts.GetCodeTTL()))
	a.verifyCode = NewVerifyCodeHandler(repo, tokenService)

	return a
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger == nil {
		return s
	}
	s.logger = logger
	s.requestCode.WithLogger(logger)
	s.verifyCode.WithLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	s.requestCode.WithActivitySink(s.activitySink)
	s.verifyCode.WithActivitySink(s.activitySink)
	return s
}

// WithTokenValidator sets a custom validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenService) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// RequestCode issues and delivers a confirmation code for the email,
// creating the identity on first contact. It succeeds for registered
// and unregistered emails alike.
func (s *Auther) RequestCode(ctx context.Context, email string) error {
	return s.requestCode.Execute(ctx, RequestCodeMessage{Email: email})
}

// VerifyCode exchanges a confirmation code for a signed access token,
// activating the identity on first success.
func (s *Auther) VerifyCode(ctx context.Context, email, code string) (string, error) {
	var token string
	err := s.verifyCode.Execute(ctx, VerifyCodeMessage{
		Email:            email,
		ConfirmationCode: code,
		OnResponse: func(resp *VerifyCodeResponse) {
			token = resp.Token
		},
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// SessionFromToken validates a raw token and rebuilds the session view.
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.validator().Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

// ActorFromToken validates a raw token and produces the explicit Actor
// value for authorization checks. An empty token resolves to the
// anonymous actor; an invalid or expired token is an error, never a
// silent downgrade to anonymous.
func (s *Auther) ActorFromToken(raw string) (Actor, error) {
	if raw == "" {
		return AnonymousActor(), nil
	}

	claims, err := s.validator().Validate(raw)
	if err != nil {
		return Actor{}, err
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return Actor{}, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	role, ok := ParseRole(claims.Role())
	if !ok {
		role = RoleUser
	}

	return Actor{
		ID:            id,
		Role:          role,
		Superuser:     claims.IsSuperuser(),
		Authenticated: true,
	}, nil
}

// Authorize runs the permission decision table for the actor and emits
// an audit event on denial.
func (s *Auther) Authorize(ctx context.Context, actor Actor, action Action, kind ResourceKind, owner uuid.UUID) error {
	if err := Check(actor, action, kind, owner); err != nil {
		s.emitDenied(ctx, actor, action, kind)
		return err
	}
	return nil
}

func (s *Auther) validator() TokenService {
	if s.tokenValidator != nil {
		return s.tokenValidator
	}
	return s.tokenService
}

func (s *Auther) emitDenied(ctx context.Context, actor Actor, action Action, kind ResourceKind) {
	actorRef := ActorRef{Type: "anonymous"}
	userID := ""
	if actor.Authenticated {
		actorRef = ActorRef{ID: actor.ID.String(), Type: "user"}
		userID = actor.ID.String()
	}

	event := ActivityEvent{
		EventType: ActivityEventPermissionDenied,
		Actor:     actorRef,
		UserID:    userID,
		Metadata: map[string]any{
			"action":   string(action),
			"resource": string(kind),
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(s.activitySink).Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

var _ Authenticator = (*Auther)(nil)
