package lease

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"propertyhub/app/echoServer/controller"
	"propertyhub/model"
	leasesvc "propertyhub/service/lease"
	reportsvc "propertyhub/service/report"
	"propertyhub/util/apperr"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Controller struct {
	Svc    leasesvc.Service
	Report reportsvc.Service
	Log    *zap.Logger
}

// GET /v1/leases?status=&tenant_id=&unit_id=
func (h *Controller) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		rows []model.Lease
		err  error
	)
	switch {
	case c.QueryParam("status") != "":
		st, perr := reportsvc.ParseStatus(c.QueryParam("status"))
		if perr != nil {
			return controller.Fail(c, h.Log, "list leases", perr)
		}
		rows, err = h.Svc.GetLeasesByStatus(ctx, *st)
	case c.QueryParam("tenant_id") != "":
		id, perr := strconv.ParseInt(c.QueryParam("tenant_id"), 10, 64)
		if perr != nil {
			return controller.BadRequest(c, "invalid tenant_id")
		}
		rows, err = h.Svc.GetLeasesByTenant(ctx, id)
	case c.QueryParam("unit_id") != "":
		id, perr := strconv.ParseInt(c.QueryParam("unit_id"), 10, 64)
		if perr != nil {
			return controller.BadRequest(c, "invalid unit_id")
		}
		rows, err = h.Svc.GetLeasesByUnit(ctx, id)
	default:
		rows, err = h.Svc.GetAllLeases(ctx)
	}
	if err != nil {
		return controller.Fail(c, h.Log, "list leases", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/leases/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "get lease", err)
	}
	l, err := h.Svc.GetLease(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "get lease", err)
	}
	return c.JSON(http.StatusOK, l)
}

// POST /v1/leases
func (h *Controller) Create(c echo.Context) error {
	var req CreateLeaseReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, h.Log, "create lease", err)
	}
	l, err := req.toModel()
	if err != nil {
		return controller.Fail(c, h.Log, "create lease", err)
	}
	var out *model.Lease
	if req.Pending {
		out, err = h.Svc.CreatePending(c.Request().Context(), l)
	} else {
		out, err = h.Svc.CreateLease(c.Request().Context(), l)
	}
	if err != nil {
		return controller.Fail(c, h.Log, "create lease", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// PUT /v1/leases/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "update lease", err)
	}
	var req UpdateLeaseReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, h.Log, "update lease", err)
	}
	upd, err := req.toModel()
	if err != nil {
		return controller.Fail(c, h.Log, "update lease", err)
	}
	l, err := h.Svc.UpdateLease(c.Request().Context(), id, upd)
	if err != nil {
		return controller.Fail(c, h.Log, "update lease", err)
	}
	return c.JSON(http.StatusOK, l)
}

// DELETE /v1/leases/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "delete lease", err)
	}
	if err := h.Svc.DeleteLease(c.Request().Context(), id); err != nil {
		return controller.Fail(c, h.Log, "delete lease", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /v1/leases/:id/activate
func (h *Controller) Activate(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "activate lease", err)
	}
	l, err := h.Svc.ActivateLease(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "activate lease", err)
	}
	return c.JSON(http.StatusOK, l)
}

// POST /v1/leases/:id/terminate
func (h *Controller) Terminate(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "terminate lease", err)
	}
	var req TerminateReq
	if c.Request().ContentLength != 0 {
		if err := controller.BindValid(c, &req); err != nil {
			return controller.Fail(c, h.Log, "terminate lease", err)
		}
	}
	l, err := h.Svc.TerminateLease(c.Request().Context(), id, req.Reason)
	if err != nil {
		return controller.Fail(c, h.Log, "terminate lease", err)
	}
	return c.JSON(http.StatusOK, l)
}

// GET /v1/leases/ending-soon?days=
func (h *Controller) EndingSoon(c echo.Context) error {
	days := 30
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return controller.BadRequest(c, "invalid days")
		}
		days = n
	}
	rows, err := h.Svc.GetLeasesEndingSoon(c.Request().Context(), days)
	if err != nil {
		return controller.Fail(c, h.Log, "leases ending soon", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/leases/expired
func (h *Controller) Expired(c echo.Context) error {
	rows, err := h.Svc.GetExpiredLeases(c.Request().Context())
	if err != nil {
		return controller.Fail(c, h.Log, "expired leases", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/leases/unit/:unitId/active
func (h *Controller) ActiveByUnit(c echo.Context) error {
	unitID, err := controller.ParamID(c, "unitId")
	if err != nil {
		return controller.Fail(c, h.Log, "active lease", err)
	}
	l, err := h.Svc.GetActiveLeaseByUnit(c.Request().Context(), unitID)
	if err != nil {
		return controller.Fail(c, h.Log, "active lease", err)
	}
	return c.JSON(http.StatusOK, l)
}

// POST /v1/leases/expire
func (h *Controller) Expire(c echo.Context) error {
	n, err := h.Svc.ExpireLeases(c.Request().Context())
	if err != nil {
		return controller.Fail(c, h.Log, "expire leases", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"expired": n})
}

// POST /v1/leases/:id/document (multipart field "file")
func (h *Controller) UploadDocument(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "upload document", err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return controller.BadRequest(c, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return controller.Fail(c, h.Log, "upload document", fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	l, err := h.Svc.AttachDocument(c.Request().Context(), id, fh.Filename, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return controller.Fail(c, h.Log, "upload document", err)
	}
	return c.JSON(http.StatusOK, l)
}

// GET /v1/leases/export?status=
func (h *Controller) Export(c echo.Context) error {
	if h.Report == nil {
		return controller.Fail(c, h.Log, "export leases", apperr.InvalidState("reports are not configured"))
	}
	st, err := reportsvc.ParseStatus(c.QueryParam("status"))
	if err != nil {
		return controller.Fail(c, h.Log, "export leases", err)
	}
	b, err := h.Report.LeasesWorkbook(c.Request().Context(), st)
	if err != nil {
		return controller.Fail(c, h.Log, "export leases", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="leases.xlsx"`)
	return c.Blob(http.StatusOK, xlsxType, b)
}
