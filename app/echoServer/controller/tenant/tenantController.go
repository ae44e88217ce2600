package tenant

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"propertyhub/app/echoServer/controller"
	tenantsvc "propertyhub/service/tenant"
)

type Controller struct {
	Svc tenantsvc.Service
	Log *zap.Logger
}

// GET /v1/tenants?email=
func (h *Controller) List(c echo.Context) error {
	ctx := c.Request().Context()
	if email := c.QueryParam("email"); email != "" {
		t, err := h.Svc.GetByEmail(ctx, email)
		if err != nil {
			return controller.Fail(c, h.Log, "find tenant", err)
		}
		return c.JSON(http.StatusOK, t)
	}
	rows, err := h.Svc.List(ctx)
	if err != nil {
		return controller.Fail(c, h.Log, "list tenants", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/tenants/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "get tenant", err)
	}
	t, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "get tenant", err)
	}
	return c.JSON(http.StatusOK, t)
}

// POST /v1/tenants
func (h *Controller) Create(c echo.Context) error {
	var req TenantReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, h.Log, "create tenant", err)
	}
	t, err := h.Svc.Create(c.Request().Context(), req.toModel())
	if err != nil {
		return controller.Fail(c, h.Log, "create tenant", err)
	}
	return c.JSON(http.StatusCreated, t)
}

// PUT /v1/tenants/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "update tenant", err)
	}
	var req TenantReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, h.Log, "update tenant", err)
	}
	t, err := h.Svc.Update(c.Request().Context(), id, req.toModel())
	if err != nil {
		return controller.Fail(c, h.Log, "update tenant", err)
	}
	return c.JSON(http.StatusOK, t)
}

// DELETE /v1/tenants/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "delete tenant", err)
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return controller.Fail(c, h.Log, "delete tenant", err)
	}
	return c.NoContent(http.StatusNoContent)
}
