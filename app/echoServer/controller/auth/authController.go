package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"propertyhub/app/echoServer/controller"
	"propertyhub/model"
	authsvc "propertyhub/service/auth"
)

type Controller struct {
	Svc authsvc.Service
	Log *zap.Logger
}

// Register creates a USER account and returns it.
// POST /v1/users/register
func (ct *Controller) Register(c echo.Context) error {
	var req model.RegisterReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, ct.Log, "register", err)
	}
	u, token, err := ct.Svc.Register(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, ct.Log, "register", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered",
		"user":    u,
		"token":   token,
	})
}

// POST /v1/users/login
func (ct *Controller) Login(c echo.Context) error {
	var req model.LoginReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, ct.Log, "login", err)
	}
	_, token, err := ct.Svc.Login(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, ct.Log, "login", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "login success",
		"token":   token,
	})
}
