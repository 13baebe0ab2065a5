package auth

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RequestCodeMessage asks for a confirmation code to be issued and
// delivered to the given email. The operation is open (no auth) and
// never reveals whether the email was already registered: a repeat
// request simply issues a fresh code and invalidates the prior one.
type RequestCodeMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *RequestCodeResponse)
}

func (m RequestCodeMessage) Type() string { return "auth.code.request" }

// Validate will run validation rules
func (m RequestCodeMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(
			&m.Email,
			validation.Required,
			is.Email,
		),
	)
}

type RequestCodeResponse struct {
	Email   string `json:"email"`
	Success bool   `json:"-"`
}

type RequestCodeHandler struct {
	repo     RepositoryManager
	notifier Notifier
	codes    *CodeGenerator
	activity ActivitySink
	logger   Logger
}

// NewRequestCodeHandler creates a handler with sane defaults.
func NewRequestCodeHandler(repo RepositoryManager, notifier Notifier) *RequestCodeHandler {
	return &RequestCodeHandler{
		repo:     repo,
		notifier: notifier,
		codes:    NewCodeGenerator(DefaultCodeTTL),
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithCodeGenerator overrides the code generator, e.g. for a custom TTL.
func (h *RequestCodeHandler) WithCodeGenerator(g *CodeGenerator) *RequestCodeHandler {
	if g != nil {
		h.codes = g
	}
	return h
}

// WithActivitySink sets the sink used to emit code issuance events.
func (h *RequestCodeHandler) WithActivitySink(sink ActivitySink) *RequestCodeHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RequestCodeHandler) WithLogger(logger Logger) *RequestCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestCodeHandler) Execute(ctx context.Context, event RequestCodeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during code request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestCodeHandler) execute(ctx context.Context, event RequestCodeMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid code request payload").
			WithMetadata(map[string]any{"email": event.Email})
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	var cleartext string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = h.repo.Users().GetOrCreateByEmailTx(ctx, tx, event.Email); err != nil {
			if isUniqueViolation(err) {
				return goerrors.Wrap(err, ErrIdentityConflict.Category, ErrIdentityConflict.Message).
					WithTextCode(ErrIdentityConflict.TextCode)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve identity for code request")
		}

		var record *ConfirmationCode
		if cleartext, record, err = h.codes.NewCode(time.Now(), user.ID); err != nil {
			return err
		}

		// invalidates any prior pending code for the same identity
		if _, err = h.repo.ConfirmationCodes().IssueTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist confirmation code")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue confirmation code")
	}

	// Delivery happens after the code is committed: a failed send leaves
	// the code valid so a retry of RequestCode is safe.
	subject := "Your confirmation code"
	body := fmt.Sprintf("Your confirmation code: %s", cleartext)
	if err := h.notifier.Send(ctx, event.Email, subject, body); err != nil {
		h.logger.Error("RequestCode notifier error: %v", err)
		h.recordActivity(ctx, ActivityEventCodeDeliveryFail, user, map[string]any{
			"error": err.Error(),
		})
		return goerrors.Wrap(err, ErrDeliveryFailed.Category, ErrDeliveryFailed.Message).
			WithTextCode(ErrDeliveryFailed.TextCode)
	}

	h.recordActivity(ctx, ActivityEventCodeRequested, user, nil)

	if event.OnResponse != nil {
		event.OnResponse(&RequestCodeResponse{Email: event.Email, Success: true})
	}

	return nil
}

func (h *RequestCodeHandler) recordActivity(ctx context.Context, eventType ActivityEventType, user *User, metadata map[string]any) {
	if user == nil {
		return
	}

	if metadata == nil {
		metadata = map[string]any{}
	}

	event := ActivityEvent{
		EventType: eventType,
		Actor: ActorRef{
			ID:   user.ID.String(),
			Type: "user",
		},
		UserID:     user.ID.String(),
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during code request: %v", err)
	}
}
