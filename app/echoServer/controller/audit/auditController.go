package audit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"propertyhub/app/echoServer/controller"
	auditsvc "propertyhub/service/audit"
)

type Controller struct {
	Svc auditsvc.Service
	Log *zap.Logger
}

// GET /v1/audit-logs?entity_type=&entity_id=&page=&size=
func (h *Controller) List(c echo.Context) error {
	var entityID *int64
	if raw := c.QueryParam("entity_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return controller.BadRequest(c, "invalid entity_id")
		}
		entityID = &id
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	out, err := h.Svc.List(c.Request().Context(), c.QueryParam("entity_type"), entityID, page, size)
	if err != nil {
		return controller.Fail(c, h.Log, "list audit logs", err)
	}
	return c.JSON(http.StatusOK, out)
}
