// Package server wires the HTTP surface over the billing services.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	balancedomain "github.com/smallbiznis/patungan/internal/balance/domain"
	chargedomain "github.com/smallbiznis/patungan/internal/charge/domain"
	"github.com/smallbiznis/patungan/internal/config"
	obsmetrics "github.com/smallbiznis/patungan/internal/observability/metrics"
	obstracing "github.com/smallbiznis/patungan/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/patungan/internal/payment/domain"
	subscriptiondomain "github.com/smallbiznis/patungan/internal/subscription/domain"
	userdomain "github.com/smallbiznis/patungan/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	genID           *snowflake.Node
	userSvc         userdomain.Service
	subscriptionSvc subscriptiondomain.Service
	chargeSvc       chargedomain.Service
	paymentSvc      paymentdomain.Service
	resolver        paymentdomain.ConflictResolver
	balanceSvc      balancedomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	GenID           *snowflake.Node
	UserSvc         userdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	ChargeSvc       chargedomain.Service
	PaymentSvc      paymentdomain.Service
	Resolver        paymentdomain.ConflictResolver
	BalanceSvc      balancedomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		genID:           p.GenID,
		userSvc:         p.UserSvc,
		subscriptionSvc: p.SubscriptionSvc,
		chargeSvc:       p.ChargeSvc,
		paymentSvc:      p.PaymentSvc,
		resolver:        p.Resolver,
		balanceSvc:      p.BalanceSvc,
	}
}

func registerRoutes(s *Server) {
	api := s.engine.Group("/api/v1")

	api.POST("/users", s.CreateUser)
	api.GET("/users", s.ListUsers)
	api.GET("/users/:id", s.GetUser)
	api.GET("/users/:id/balance", s.UserBalance)
	api.GET("/users/:id/payments", s.ListUserPayments)

	api.POST("/subscriptions", s.CreateSubscription)
	api.GET("/subscriptions/:id", s.GetSubscription)
	api.DELETE("/subscriptions/:id", s.DeactivateSubscription)
	api.GET("/subscriptions/:id/participants", s.ListParticipants)
	api.POST("/subscriptions/:id/participants", s.AddParticipant)
	api.DELETE("/subscriptions/:id/participants/:user_id", s.RemoveParticipant)
	api.POST("/subscriptions/:id/charges/generate", s.GenerateCharges)
	api.GET("/subscriptions/:id/charges", s.ListCharges)
	api.GET("/subscriptions/:id/balance", s.SubscriptionBalance)

	api.GET("/charges/:id", s.GetCharge)
	api.GET("/charges/:id/shares", s.ListChargeShares)
	api.POST("/charges/:id/cancel", s.CancelCharge)

	api.POST("/payments", s.CreatePayment)
	api.GET("/payments/:id", s.GetPayment)
	api.POST("/payments/:id/verify", s.VerifyPayment)
	api.POST("/payments/:id/revert", s.RevertPayment)
	api.POST("/payments/:id/cancel", s.CancelPayment)
	api.POST("/payments/:id/reschedule", s.ReschedulePayment)

	// gin cannot register a static segment next to /payments/:id.
	api.GET("/schedule/resolve-date", s.ResolveScheduledDate)
}
