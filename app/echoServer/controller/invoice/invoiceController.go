package invoice

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"propertyhub/app/echoServer/controller"
	invoicesvc "propertyhub/service/invoice"
)

// CallbackTokenHeader carries the shared secret on gateway callbacks.
const CallbackTokenHeader = "X-Callback-Token"

const maxCallbackBody = 64 << 10

type Controller struct {
	Svc invoicesvc.Service
	Log *zap.Logger
}

// POST /v1/leases/:id/invoices
func (h *Controller) Create(c echo.Context) error {
	leaseID, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "create invoice", err)
	}
	var req CreateInvoiceReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, h.Log, "create invoice", err)
	}
	start, err := controller.Date(req.PeriodStart)
	if err != nil {
		return controller.Fail(c, h.Log, "create invoice", err)
	}
	end, err := controller.Date(req.PeriodEnd)
	if err != nil {
		return controller.Fail(c, h.Log, "create invoice", err)
	}
	due, err := controller.Date(req.DueDate)
	if err != nil {
		return controller.Fail(c, h.Log, "create invoice", err)
	}
	inv, err := h.Svc.Create(c.Request().Context(), leaseID, start, end, due)
	if err != nil {
		return controller.Fail(c, h.Log, "create invoice", err)
	}
	return c.JSON(http.StatusCreated, inv)
}

// GET /v1/leases/:id/invoices
func (h *Controller) ListByLease(c echo.Context) error {
	leaseID, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "list invoices", err)
	}
	rows, err := h.Svc.ListByLease(c.Request().Context(), leaseID)
	if err != nil {
		return controller.Fail(c, h.Log, "list invoices", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/invoices/:id/pay
func (h *Controller) Pay(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "pay invoice", err)
	}
	inv, err := h.Svc.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "pay invoice", err)
	}
	return c.JSON(http.StatusOK, inv)
}

// POST /v1/invoices/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "cancel invoice", err)
	}
	inv, err := h.Svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "cancel invoice", err)
	}
	return c.JSON(http.StatusOK, inv)
}

// POST /v1/payments/callback
func (h *Controller) Callback(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackBody))
	if err != nil {
		return controller.BadRequest(c, "unreadable body")
	}
	token := c.Request().Header.Get(CallbackTokenHeader)
	if err := h.Svc.HandleGatewayCallback(c.Request().Context(), token, raw); err != nil {
		return controller.Fail(c, h.Log, "payment callback", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}
