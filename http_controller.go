package auth

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the two open auth endpoints. Everything else
// (catalog routes, throttling) belongs to the embedding application; a
// rate limiter can be mounted as route middleware without touching the
// handler contracts.
type HTTPController struct {
	auth   Authenticator
	logger Logger
}

// NewHTTPController creates the controller for the passwordless flow.
func NewHTTPController(auth Authenticator) *HTTPController {
	return &HTTPController{
		auth:   auth,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the controller.
func (c *HTTPController) WithLogger(logger Logger) *HTTPController {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// RegisterRoutes registers the auth routes.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Post("/auth/email", c.RequestCode)
	group.Post("/auth/token", c.ObtainToken)
}

// RequestCodePayload is the request body for POST /auth/email.
type RequestCodePayload struct {
	Email string `form:"email" json:"email"`
}

// ObtainTokenPayload is the request body for POST /auth/token.
type ObtainTokenPayload struct {
	Email            string `form:"email" json:"email"`
	ConfirmationCode string `form:"confirmation_code" json:"confirmation_code"`
}

// RequestCode handles POST /auth/email: issue and deliver a code.
func (c *HTTPController) RequestCode(ctx router.Context) error {
	payload := new(RequestCodePayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "unable to parse request body",
		})
	}

	if err := c.auth.RequestCode(ctx.Context(), payload.Email); err != nil {
		c.logger.Error("RequestCode error: %v", err)
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"email": payload.Email,
	})
}

// ObtainToken handles POST /auth/token: exchange a code for a token.
func (c *HTTPController) ObtainToken(ctx router.Context) error {
	payload := new(ObtainTokenPayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "unable to parse request body",
		})
	}

	token, err := c.auth.VerifyCode(ctx.Context(), payload.Email, payload.ConfirmationCode)
	if err != nil {
		c.logger.Error("ObtainToken error: %v", err)
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"token": token,
	})
}

func (c *HTTPController) renderError(ctx router.Context, err error) error {
	status := statusForError(err)

	body := map[string]any{
		"error": err.Error(),
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		body["error"] = rich.Message
		if rich.TextCode != "" {
			body["code"] = rich.TextCode
		}
		if rich.Category == goerrors.CategoryValidation {
			if fields := FormatValidationErrorToMap(rich); len(fields) > 0 {
				body["validation"] = fields
			}
		}
	}

	return ctx.JSON(status, body)
}

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return router.StatusInternalServerError
	}

	switch rich.TextCode {
	case TextCodeTokenExpired, TextCodeTokenMalformed:
		return router.StatusUnauthorized
	case TextCodePermissionDenied:
		return router.StatusForbidden
	case TextCodeDeliveryFailed:
		return router.StatusServiceUnavailable
	case TextCodeInvalidCode, TextCodeDuplicateReview, TextCodeIdentityConflict:
		return router.StatusBadRequest
	}

	switch rich.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		return router.StatusBadRequest
	case goerrors.CategoryNotFound:
		return router.StatusNotFound
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	case goerrors.CategoryExternal:
		return router.StatusServiceUnavailable
	default:
		return router.StatusInternalServerError
	}
}
