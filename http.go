package accounts

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ClaimsContextKey is the locals key under which RequireAuth stores the
// validated token claims.
const ClaimsContextKey = "auth_claims"

// NewHTTPErrorHandler returns the single boundary handler that maps the
// error taxonomy to status codes and the {"errors": ...} response
// shape. Handlers never write error responses themselves.
//
// Mapping:
//   - input validation / uniqueness conflicts -> 400, field-keyed body
//   - authentication failures -> 401, generic message
//   - anything else -> the error's own code when meaningful, otherwise
//     500 with a generic body; details are only logged
func NewHTTPErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var vErrs validation.Errors
		if goerrors.As(err, &vErrs) {
			fields := make(map[string]string, len(vErrs))
			for field, fieldErr := range vErrs {
				if fieldErr != nil {
					fields[field] = fieldErr.Error()
				}
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fields})
		}

		var fiberErr *fiber.Error
		if goerrors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"errors": fiberErr.Message})
		}

		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) {
			richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
				WithCode(goerrors.CodeInternal)
		}

		logger.Error(
			"request error",
			"category", richErr.Category,
			"text_code", richErr.TextCode,
			"message", richErr.Message,
			"metadata", print.MaybePrettyJSON(richErr.Metadata),
		)

		switch richErr.Category {
		case goerrors.CategoryValidation, goerrors.CategoryConflict:
			if fields, ok := FieldErrors(richErr); ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fields})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": richErr.Message})
		case goerrors.CategoryAuth, goerrors.CategoryAuthz:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"errors": richErr.Message})
		default:
			status := richErr.Code
			if status == 0 || status >= fiber.StatusInternalServerError {
				// never leak internals to the caller
				return c.Status(fiber.StatusInternalServerError).
					JSON(fiber.Map{"errors": "Internal Server Error"})
			}
			return c.Status(status).JSON(fiber.Map{"errors": richErr.Message})
		}
	}
}

// RequireAuth guards a route with bearer-token authentication. The
// validated claims are stored in the request locals.
func RequireAuth(tokens TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := tokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return goerrors.New("missing or malformed JWT", goerrors.CategoryAuth).
				WithTextCode("TOKEN_MISSING").
				WithCode(goerrors.CodeUnauthorized)
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			// normalize wrapped parser errors to the canonical vars so
			// the boundary always answers with the same 401 bodies
			if IsTokenExpiredError(err) {
				return ErrTokenExpired
			}
			if IsMalformedError(err) {
				return ErrTokenMalformed
			}
			return err
		}

		c.Locals(ClaimsContextKey, claims)
		return c.Next()
	}
}

// ClaimsFromContext retrieves the claims stored by RequireAuth.
func ClaimsFromContext(c *fiber.Ctx) (AuthClaims, bool) {
	claims, ok := c.Locals(ClaimsContextKey).(AuthClaims)
	return claims, ok
}

func tokenFromHeader(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
