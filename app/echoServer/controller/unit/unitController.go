package unit

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"propertyhub/app/echoServer/controller"
	"propertyhub/app/echoServer/jwtx"
	"propertyhub/model"
	unitsvc "propertyhub/service/unit"
)

type Controller struct {
	Svc unitsvc.Service
	Log *zap.Logger
}

// GET /v1/units?status=
func (h *Controller) List(c echo.Context) error {
	var status *model.UnitStatus
	if s := c.QueryParam("status"); s != "" {
		st := model.UnitStatus(s)
		status = &st
	}
	rows, err := h.Svc.List(c.Request().Context(), status)
	if err != nil {
		return controller.Fail(c, h.Log, "list units", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/units/available
func (h *Controller) Available(c echo.Context) error {
	rows, err := h.Svc.ListAvailable(c.Request().Context())
	if err != nil {
		return controller.Fail(c, h.Log, "list available units", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/units/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "get unit", err)
	}
	u, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "get unit", err)
	}
	return c.JSON(http.StatusOK, u)
}

// POST /v1/units
func (h *Controller) Create(c echo.Context) error {
	var req UnitReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, h.Log, "create unit", err)
	}
	u, err := h.Svc.Create(c.Request().Context(), jwtx.Principal(c), req.toModel())
	if err != nil {
		return controller.Fail(c, h.Log, "create unit", err)
	}
	return c.JSON(http.StatusCreated, u)
}

// PUT /v1/units/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "update unit", err)
	}
	var req UnitReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, h.Log, "update unit", err)
	}
	u, err := h.Svc.Update(c.Request().Context(), jwtx.Principal(c), id, req.toModel())
	if err != nil {
		return controller.Fail(c, h.Log, "update unit", err)
	}
	return c.JSON(http.StatusOK, u)
}

// DELETE /v1/units/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "delete unit", err)
	}
	if err := h.Svc.Delete(c.Request().Context(), jwtx.Principal(c), id); err != nil {
		return controller.Fail(c, h.Log, "delete unit", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /v1/units/:id/maintenance
func (h *Controller) StartMaintenance(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "start maintenance", err)
	}
	u, err := h.Svc.StartMaintenance(c.Request().Context(), jwtx.Principal(c), id)
	if err != nil {
		return controller.Fail(c, h.Log, "start maintenance", err)
	}
	return c.JSON(http.StatusOK, u)
}

// DELETE /v1/units/:id/maintenance
func (h *Controller) EndMaintenance(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "end maintenance", err)
	}
	u, err := h.Svc.EndMaintenance(c.Request().Context(), jwtx.Principal(c), id)
	if err != nil {
		return controller.Fail(c, h.Log, "end maintenance", err)
	}
	return c.JSON(http.StatusOK, u)
}
