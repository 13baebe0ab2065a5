package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// VerifyCodeMessage exchanges an emailed confirmation code for a signed
// access token. The code is consumed exactly once: a repeat with the
// same code fails, a fresh RequestCode is required to try again.
type VerifyCodeMessage struct {
	Email            string `json:"email"`
	ConfirmationCode string `json:"confirmation_code"`
	OnResponse       func(resp *VerifyCodeResponse)
}

func (m VerifyCodeMessage) Type() string { return "auth.code.verify" }

// Validate will run validation rules
func (m VerifyCodeMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(
			&m.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&m.ConfirmationCode,
			validation.Required,
		),
	)
}

type VerifyCodeResponse struct {
	Token string `json:"token"`
	User  *User  `json:"-"`
}

type VerifyCodeHandler struct {
	repo     RepositoryManager
	tokens   TokenService
	activity ActivitySink
	logger   Logger
}

// NewVerifyCodeHandler creates a handler with sane defaults.
func NewVerifyCodeHandler(repo RepositoryManager, tokens TokenService) *VerifyCodeHandler {
	return &VerifyCodeHandler{
		repo:     repo,
		tokens:   tokens,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit verification events.
func (h *VerifyCodeHandler) WithActivitySink(sink ActivitySink) *VerifyCodeHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyCodeHandler) WithLogger(logger Logger) *VerifyCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyCodeHandler) Execute(ctx context.Context, event VerifyCodeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during code verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyCodeHandler) execute(ctx context.Context, event VerifyCodeMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid code verification payload").
			WithMetadata(map[string]any{"email": event.Email})
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	var token string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err != nil {
			// an unknown email is part of the expected flow, not an
			// application error
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve identity for verification")
		}

		pending, err := h.repo.ConfirmationCodes().PendingByUserTx(ctx, tx, user.ID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve pending confirmation code")
		}

		if pending == nil || pending.Expired(time.Now()) {
			return ErrInvalidCode
		}

		if err := CompareCodeAndHash(event.ConfirmationCode, pending.CodeHash); err != nil {
			return ErrInvalidCode
		}

		// guarded consume: with two concurrent verifications the status
		// predicate lets exactly one through
		consumed, err := h.repo.ConfirmationCodes().ConsumeTx(ctx, tx, pending.ID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume confirmation code")
		}
		if !consumed {
			return ErrInvalidCode
		}

		if err := h.repo.Users().ActivateTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate identity")
		}
		user.Active = true

		// minting inside the transaction keeps success atomic: a signing
		// failure rolls back the consume so the code stays usable
		if token, err = h.tokens.Generate(NewIdentityFromUser(user)); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		h.recordActivity(ctx, ActivityEventVerifyFailure, user, event.Email, map[string]any{
			"error": err.Error(),
		})
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify confirmation code")
	}

	h.recordActivity(ctx, ActivityEventVerifySuccess, user, event.Email, nil)
	h.recordActivity(ctx, ActivityEventTokenIssued, user, event.Email, nil)

	if event.OnResponse != nil {
		event.OnResponse(&VerifyCodeResponse{Token: token, User: user})
	}

	return nil
}

func (h *VerifyCodeHandler) recordActivity(ctx context.Context, eventType ActivityEventType, user *User, email string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["email"] = email

	actor := ActorRef{Type: "unknown"}
	userID := ""
	if user != nil {
		actor = ActorRef{ID: user.ID.String(), Type: "user"}
		userID = user.ID.String()
	}

	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during code verification: %v", err)
	}
}
