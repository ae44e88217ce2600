package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"propertyhub/model"
	jwtutil "propertyhub/util/jwt"
)

const principalKey = "principal"

// FromToken turns the token echo-jwt stored under "user" into a Principal.
func FromToken(c echo.Context) (model.Principal, error) {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return model.Principal{}, errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(*jwtutil.Claims)
	if !ok {
		return model.Principal{}, errors.New("invalid jwt claims")
	}
	id, err := claims.UserID()
	if err != nil {
		return model.Principal{}, err
	}
	return model.Principal{UserID: id, Email: claims.Email, Role: model.Role(claims.Role)}, nil
}

func Set(c echo.Context, p model.Principal) { c.Set(principalKey, p) }

// Principal returns the caller set by the auth middleware, or the zero value.
func Principal(c echo.Context) model.Principal {
	p, _ := c.Get(principalKey).(model.Principal)
	return p
}
