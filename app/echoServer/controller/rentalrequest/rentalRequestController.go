package rentalrequest

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"propertyhub/app/echoServer/controller"
	"propertyhub/app/echoServer/jwtx"
	"propertyhub/model"
	rentalrequestsvc "propertyhub/service/rentalrequest"
)

type Controller struct {
	Svc rentalrequestsvc.Service
	Log *zap.Logger
}

// POST /v1/rental-requests
func (h *Controller) Create(c echo.Context) error {
	var req CreateReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, h.Log, "create rental request", err)
	}
	out, err := h.Svc.CreateRentalRequest(c.Request().Context(), jwtx.Principal(c), req.toModel())
	if err != nil {
		return controller.Fail(c, h.Log, "create rental request", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /v1/rental-requests?status=
// Admins see every request, everyone else only their own.
func (h *Controller) List(c echo.Context) error {
	p := jwtx.Principal(c)
	ctx := c.Request().Context()
	var (
		rows []model.RentalRequest
		err  error
	)
	if p.IsAdmin() {
		var status *model.RentalRequestStatus
		if s := c.QueryParam("status"); s != "" {
			st := model.RentalRequestStatus(s)
			status = &st
		}
		rows, err = h.Svc.List(ctx, status)
	} else {
		rows, err = h.Svc.ListByUser(ctx, p.UserID)
	}
	if err != nil {
		return controller.Fail(c, h.Log, "list rental requests", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/rental-requests/me/latest
func (h *Controller) MyLatest(c echo.Context) error {
	out, err := h.Svc.GetMyLatestRequest(c.Request().Context(), jwtx.Principal(c).UserID)
	if err != nil {
		return controller.Fail(c, h.Log, "latest rental request", err)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /v1/rental-requests/:id/approve
func (h *Controller) Approve(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "approve rental request", err)
	}
	var req ApproveReq
	if c.Request().ContentLength != 0 {
		if err := controller.BindValid(c, &req); err != nil {
			return controller.Fail(c, h.Log, "approve rental request", err)
		}
	}
	approver := jwtx.Principal(c).UserID
	ctx := c.Request().Context()

	if req.StartDate == "" && req.EndDate == "" {
		out, err := h.Svc.ApproveRequest(ctx, id, approver)
		if err != nil {
			return controller.Fail(c, h.Log, "approve rental request", err)
		}
		return c.JSON(http.StatusOK, echo.Map{"request": out})
	}
	if req.StartDate == "" || req.EndDate == "" {
		return controller.BadRequest(c, "start_date and end_date go together")
	}
	start, err := controller.Date(req.StartDate)
	if err != nil {
		return controller.Fail(c, h.Log, "approve rental request", err)
	}
	end, err := controller.Date(req.EndDate)
	if err != nil {
		return controller.Fail(c, h.Log, "approve rental request", err)
	}
	out, err := h.Svc.ApproveRequestWithLease(ctx, id, approver, start, end)
	if err != nil {
		return controller.Fail(c, h.Log, "approve rental request", err)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /v1/rental-requests/:id/reject
func (h *Controller) Reject(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "reject rental request", err)
	}
	var req RejectReq
	if err := controller.BindValid(c, &req); err != nil {
		return controller.Fail(c, h.Log, "reject rental request", err)
	}
	out, err := h.Svc.RejectRequest(c.Request().Context(), id, req.Reason, jwtx.Principal(c).UserID)
	if err != nil {
		return controller.Fail(c, h.Log, "reject rental request", err)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /v1/rental-requests/:id/acknowledge
func (h *Controller) Acknowledge(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "acknowledge rejection", err)
	}
	ok, err := h.Svc.AcknowledgeRejection(c.Request().Context(), id, jwtx.Principal(c).UserID)
	if err != nil {
		return controller.Fail(c, h.Log, "acknowledge rejection", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"acknowledged": ok})
}

// POST /v1/rental-requests/:id/complete
func (h *Controller) Complete(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "complete rental request", err)
	}
	out, err := h.Svc.Complete(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "complete rental request", err)
	}
	return c.JSON(http.StatusOK, out)
}

// DELETE /v1/rental-requests/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := controller.ParamID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "delete rental request", err)
	}
	if err := h.Svc.DeleteRentalRequest(c.Request().Context(), id); err != nil {
		return controller.Fail(c, h.Log, "delete rental request", err)
	}
	return c.NoContent(http.StatusNoContent)
}
