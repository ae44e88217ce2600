// Package controller holds the helpers shared by the HTTP handlers.
package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"propertyhub/util/apperr"
)

var statusByCode = map[apperr.Code]int{
	apperr.CodeNotFound:     http.StatusNotFound,
	apperr.CodeConflict:     http.StatusConflict,
	apperr.CodeInvalidState: http.StatusBadRequest,
	apperr.CodeBadInput:     http.StatusBadRequest,
	apperr.CodeUnauthorized: http.StatusUnauthorized,
	apperr.CodeForbidden:    http.StatusForbidden,
}

// Fail writes err as JSON. Unknown errors are logged and hidden behind a 500.
func Fail(c echo.Context, log *zap.Logger, action string, err error) error {
	code := apperr.CodeOf(err)
	status, ok := statusByCode[code]
	rid := c.Response().Header().Get(echo.HeaderXRequestID)
	if !ok {
		log.Error(action+" failed",
			zap.Error(err),
			zap.String("req_id", rid),
			zap.String("path", c.Path()),
			zap.String("method", c.Request().Method),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	log.Warn(action+" rejected", zap.String("code", string(code)), zap.String("req_id", rid), zap.Error(err))
	return c.JSON(status, echo.Map{"message": err.Error(), "code": code})
}

// BadRequest is for bind, validation and parameter errors raised before a service call.
func BadRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"message": msg, "code": apperr.CodeBadInput})
}

// BindValid binds the body into req and runs the echo validator on it.
func BindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.BadInput("invalid body")
	}
	if err := c.Validate(req); err != nil {
		return apperr.BadInput("validation error: %v", err)
	}
	return nil
}

func ParamID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadInput("invalid %s", name)
	}
	return id, nil
}

// Date parses YYYY-MM-DD; an empty string gives the zero time.
func Date(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperr.BadInput("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
