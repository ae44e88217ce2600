package echoServer

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"propertyhub/app/echoServer/controller/audit"
	"propertyhub/app/echoServer/controller/auth"
	"propertyhub/app/echoServer/controller/invoice"
	"propertyhub/app/echoServer/controller/lease"
	"propertyhub/app/echoServer/controller/rentalrequest"
	"propertyhub/app/echoServer/controller/tenant"
	"propertyhub/app/echoServer/controller/unit"
)

type C struct {
	Auth          *auth.Controller
	Unit          *unit.Controller
	Tenant        *tenant.Controller
	Lease         *lease.Controller
	RentalRequest *rentalrequest.Controller
	Invoice       *invoice.Controller
	Audit         *audit.Controller
	JWTSecret     string
	// RequestsPerMinute limits rental-request submissions per client IP; 0 disables it.
	RequestsPerMinute int
}

func Register(e *echo.Echo, c C) {
	e.GET("/health", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	// Public
	e.POST("/v1/users/register", c.Auth.Register)
	e.POST("/v1/users/login", c.Auth.Login)
	e.POST("/v1/payments/callback", c.Invoice.Callback)

	// Auth
	v1 := e.Group("/v1", JWTAuth(c.JWTSecret)...)
	admin := RequireAdmin

	v1.GET("/units", c.Unit.List)
	v1.GET("/units/available", c.Unit.Available)
	v1.GET("/units/:id", c.Unit.Detail)
	v1.POST("/units", c.Unit.Create, admin)
	v1.PUT("/units/:id", c.Unit.Update, admin)
	v1.DELETE("/units/:id", c.Unit.Delete, admin)
	v1.POST("/units/:id/maintenance", c.Unit.StartMaintenance, admin)
	v1.DELETE("/units/:id/maintenance", c.Unit.EndMaintenance, admin)

	v1.GET("/tenants", c.Tenant.List, admin)
	v1.GET("/tenants/:id", c.Tenant.Detail, admin)
	v1.POST("/tenants", c.Tenant.Create, admin)
	v1.PUT("/tenants/:id", c.Tenant.Update, admin)
	v1.DELETE("/tenants/:id", c.Tenant.Delete, admin)

	v1.GET("/leases", c.Lease.List, admin)
	v1.GET("/leases/ending-soon", c.Lease.EndingSoon, admin)
	v1.GET("/leases/expired", c.Lease.Expired, admin)
	v1.GET("/leases/export", c.Lease.Export, admin)
	v1.GET("/leases/unit/:unitId/active", c.Lease.ActiveByUnit, admin)
	v1.POST("/leases/expire", c.Lease.Expire, admin)
	v1.GET("/leases/:id", c.Lease.Detail, admin)
	v1.POST("/leases", c.Lease.Create, admin)
	v1.PUT("/leases/:id", c.Lease.Update, admin)
	v1.DELETE("/leases/:id", c.Lease.Delete, admin)
	v1.POST("/leases/:id/activate", c.Lease.Activate, admin)
	v1.POST("/leases/:id/terminate", c.Lease.Terminate, admin)
	v1.POST("/leases/:id/document", c.Lease.UploadDocument, admin)

	v1.POST("/leases/:id/invoices", c.Invoice.Create, admin)
	v1.GET("/leases/:id/invoices", c.Invoice.ListByLease, admin)
	v1.POST("/invoices/:id/pay", c.Invoice.Pay, admin)
	v1.POST("/invoices/:id/cancel", c.Invoice.Cancel, admin)

	v1.POST("/rental-requests", c.RentalRequest.Create, RateLimit(c.RequestsPerMinute))
	v1.GET("/rental-requests", c.RentalRequest.List)
	v1.GET("/rental-requests/me/latest", c.RentalRequest.MyLatest)
	v1.POST("/rental-requests/:id/acknowledge", c.RentalRequest.Acknowledge)
	v1.POST("/rental-requests/:id/approve", c.RentalRequest.Approve, admin)
	v1.POST("/rental-requests/:id/reject", c.RentalRequest.Reject, admin)
	v1.POST("/rental-requests/:id/complete", c.RentalRequest.Complete, admin)
	v1.DELETE("/rental-requests/:id", c.RentalRequest.Delete, admin)

	v1.GET("/audit-logs", c.Audit.List, admin)
}
