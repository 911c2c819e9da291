package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"tripdesk/internal/common"
	"tripdesk/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestValidator plugs go-playground/validator into echo and reports
// failures with the JSON field name.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (rv *RequestValidator) Validate(i any) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return common.NewValidationError(fe.Field(), validationMessage(fe))
	}
	return common.NewValidationError("body", err.Error())
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	}
	return "is invalid"
}

// NewHTTPErrorHandler maps domain errors to status codes. Outside production
// unexpected failures carry their cause in details.
func NewHTTPErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorResponse(err, production)
		if status >= http.StatusInternalServerError {
			logger.FromEcho(c).Error("request failed",
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.FromEcho(c).Error("failed to write error response", zap.Error(err))
		}
	}
}

func errorResponse(err error, production bool) (int, *common.ErrorResponse) {
	var (
		verr      *common.ValidationError
		forbidden *common.ForbiddenError
		opErr     *common.OperationError
		httpErr   *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, common.CreateErrorResponse("VALIDATION_ERROR", "Validation failed", map[string]string{verr.Field: verr.Message})
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, common.CreateErrorResponse("VALIDATION_ERROR", err.Error(), nil)
	case errors.As(err, &forbidden):
		return http.StatusForbidden, common.CreateErrorResponse("FORBIDDEN", forbidden.Reason, nil)
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, common.CreateErrorResponse("FORBIDDEN", err.Error(), nil)
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil)
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, common.CreateErrorResponse("NOT_FOUND", err.Error(), nil)
	case errors.Is(err, common.ErrVersionConflict):
		return http.StatusPreconditionFailed, common.CreateErrorResponse("PRECONDITION_FAILED", err.Error(), nil)
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, common.CreateErrorResponse("CONFLICT", err.Error(), nil)
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", err.Error(), nil)
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			msg = m
		}
		return httpErr.Code, common.CreateErrorResponse(statusCode(httpErr.Code), msg, nil)
	case errors.As(err, &opErr):
		var details map[string]string
		if !production {
			details = map[string]string{"cause": opErr.Detail()}
		}
		return http.StatusInternalServerError, common.CreateErrorResponse("SERVER_ERROR", opErr.Error(), details)
	}

	var details map[string]string
	if !production {
		details = map[string]string{"cause": err.Error()}
	}
	return http.StatusInternalServerError, common.CreateErrorResponse("SERVER_ERROR", "An unexpected error occurred", details)
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= http.StatusInternalServerError {
		return "SERVER_ERROR"
	}
	return "CLIENT_ERROR"
}
