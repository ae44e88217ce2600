// Package app assembles the stores, services and transports from config.
package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"propertyhub/app/echoServer"
	auditctrl "propertyhub/app/echoServer/controller/audit"
	authctrl "propertyhub/app/echoServer/controller/auth"
	invoicectrl "propertyhub/app/echoServer/controller/invoice"
	leasectrl "propertyhub/app/echoServer/controller/lease"
	requestctrl "propertyhub/app/echoServer/controller/rentalrequest"
	tenantctrl "propertyhub/app/echoServer/controller/tenant"
	unitctrl "propertyhub/app/echoServer/controller/unit"
	"propertyhub/app/echoServer/validation"
	"propertyhub/config"
	auditrepo "propertyhub/repository/audit"
	documentrepo "propertyhub/repository/document"
	gatewayrepo "propertyhub/repository/gateway"
	invoicerepo "propertyhub/repository/invoice"
	leaserepo "propertyhub/repository/lease"
	"propertyhub/repository/memory"
	rentalrequestrepo "propertyhub/repository/rentalrequest"
	tenantrepo "propertyhub/repository/tenant"
	unitrepo "propertyhub/repository/unit"
	userrepo "propertyhub/repository/user"
	auditsvc "propertyhub/service/audit"
	authsvc "propertyhub/service/auth"
	invoicesvc "propertyhub/service/invoice"
	leasesvc "propertyhub/service/lease"
	notifysvc "propertyhub/service/notify"
	rentalrequestsvc "propertyhub/service/rentalrequest"
	reportsvc "propertyhub/service/report"
	"propertyhub/service/scheduler"
	tenantsvc "propertyhub/service/tenant"
	unitsvc "propertyhub/service/unit"
	"propertyhub/util/database"
	"propertyhub/util/lock"
)

type Container struct {
	Cfg config.App
	Log *zap.Logger
	DB  *database.DB

	mongo *mongo.Client
	redis *redis.Client
	queue *asynq.Client

	Locker   lock.Locker
	Audit    auditsvc.Service
	Auth     authsvc.Service
	Units    unitsvc.Service
	Tenants  tenantsvc.Service
	Leases   leasesvc.Service
	Requests rentalrequestsvc.Service
	Invoices invoicesvc.Service
	Report   reportsvc.Service
}

// Build connects Postgres plus whichever optional backends are configured.
// Without Mongo the audit log lives in process memory; without Redis
// notifications are dropped and sweeps lock locally.
func Build(ctx context.Context, cfg config.App, log *zap.Logger) (*Container, error) {
	if err := cfg.RequireDB(); err != nil {
		return nil, err
	}
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	c := &Container{Cfg: cfg, Log: log, DB: db}

	var auditStore auditrepo.Repo = memory.NewAuditLog()
	if cfg.MongoEnabled() {
		mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		c.mongo = mc
		if err := mc.Ping(ctx, nil); err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("mongo ping: %w", err)
		}
		mdb := mc.Database(cfg.MongoDB)
		if err := auditrepo.EnsureIndexes(ctx, mdb); err != nil {
			log.Warn("audit index creation failed", zap.Error(err))
		}
		auditStore = auditrepo.NewMongo(mdb)
	} else {
		log.Warn("MONGO_URI not set, audit log is kept in memory")
	}

	var notifier notifysvc.Notifier = notifysvc.Nop{}
	c.Locker = lock.NewLocal()
	if cfg.RedisEnabled() {
		c.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := c.redis.Ping(ctx).Err(); err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		c.Locker = lock.NewRedis(c.redis)
		c.queue = asynq.NewClient(c.redisOpt())
		notifier = notifysvc.NewQueue(c.queue, log)
	} else {
		log.Warn("REDIS_ADDR not set, notifications disabled")
	}

	var docs documentrepo.Store
	if cfg.S3Enabled() {
		docs, err = documentrepo.NewS3(ctx, cfg.AWSRegion, cfg.AWSKeyID, cfg.AWSSecretKey, cfg.S3Bucket)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
	}

	var gateway gatewayrepo.Repo
	if cfg.GatewayEnabled() {
		gateway = gatewayrepo.NewHTTP(cfg.GatewayURL, cfg.GatewayKey, cfg.GatewayCallbackToken)
	}

	units, tenants, leases := unitrepo.New(), tenantrepo.New(), leaserepo.New()
	c.Audit = auditsvc.New(auditStore, nil, log)
	c.Auth = authsvc.New(db.SQL, userrepo.New(), cfg.JWTSecret, cfg.JWTTTLHours, log)
	c.Units = unitsvc.New(db.SQL, db, units, leases, c.Audit)
	c.Tenants = tenantsvc.New(db.SQL, db, tenants, leases, c.Audit)
	c.Leases = leasesvc.New(leasesvc.Deps{
		DB: db.SQL, Tx: db, Units: units, Tenants: tenants, Leases: leases,
		Docs: docs, Audit: c.Audit, Log: log,
	})
	c.Requests = rentalrequestsvc.New(rentalrequestsvc.Deps{
		DB: db.SQL, Tx: db, Requests: rentalrequestrepo.New(), Units: units, Leases: leases,
		Tenants: tenants, Users: userrepo.New(), TenantSv: c.Tenants, LeaseSv: c.Leases,
		Audit: c.Audit, Notifier: notifier, Log: log,
	})
	c.Invoices = invoicesvc.New(invoicesvc.Deps{
		DB: db.SQL, Tx: db, Invoices: invoicerepo.New(), Leases: leases, Tenants: tenants,
		Gateway: gateway, Audit: c.Audit, Log: log,
	})
	c.Report = reportsvc.New(db.SQL, leases, units, tenants)
	return c, nil
}

func (c *Container) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Cfg.RedisAddr, Password: c.Cfg.RedisPassword, DB: c.Cfg.RedisDB}
}

// Echo returns the HTTP server with every route registered.
func (c *Container) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	echoServer.RegisterMiddlewares(e, c.Log)
	echoServer.Register(e, echoServer.C{
		Auth:              &authctrl.Controller{Svc: c.Auth, Log: c.Log},
		Unit:              &unitctrl.Controller{Svc: c.Units, Log: c.Log},
		Tenant:            &tenantctrl.Controller{Svc: c.Tenants, Log: c.Log},
		Lease:             &leasectrl.Controller{Svc: c.Leases, Report: c.Report, Log: c.Log},
		RentalRequest:     &requestctrl.Controller{Svc: c.Requests, Log: c.Log},
		Invoice:           &invoicectrl.Controller{Svc: c.Invoices, Log: c.Log},
		Audit:             &auditctrl.Controller{Svc: c.Audit, Log: c.Log},
		JWTSecret:         c.Cfg.JWTSecret,
		RequestsPerMinute: c.Cfg.RequestRatePerMin,
	})
	return e
}

// Jobs are the periodic sweeps, also runnable once from the CLI.
func (c *Container) Jobs() []scheduler.Job {
	return []scheduler.Job{
		{
			Name: "expire-leases",
			Spec: c.Cfg.LeaseExpiryCron,
			Run: func(ctx context.Context) (int64, error) {
				n, err := c.Leases.ExpireLeases(ctx)
				return int64(n), err
			},
		},
		{
			Name: "mark-overdue",
			Spec: c.Cfg.InvoiceOverdueCron,
			Run:  c.Invoices.MarkOverdue,
		},
	}
}

// Worker consumes notification tasks. Nil when Redis is not configured.
func (c *Container) Worker() *asynq.Server {
	if c.redis == nil {
		return nil
	}
	return asynq.NewServer(c.redisOpt(), asynq.Config{
		Concurrency: 5,
		Logger:      c.Log.Sugar(),
	})
}

// WorkerMux routes notification tasks to the delivery handler.
func (c *Container) WorkerMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	notifysvc.NewHandler(notifysvc.LogDeliverer{Log: c.Log}).Register(mux)
	return mux
}

func (c *Container) Close(ctx context.Context) {
	if c.Audit != nil {
		c.Audit.Flush()
	}
	if c.queue != nil {
		_ = c.queue.Close()
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.mongo != nil {
		_ = c.mongo.Disconnect(ctx)
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
