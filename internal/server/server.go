package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/railzwaylabs/metertrack/internal/authorization"
	baselinedomain "github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"github.com/railzwaylabs/metertrack/internal/bootstrap"
	"github.com/railzwaylabs/metertrack/internal/cache"
	"github.com/railzwaylabs/metertrack/internal/clock"
	"github.com/railzwaylabs/metertrack/internal/config"
	"github.com/railzwaylabs/metertrack/internal/observability"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
	usagedomain "github.com/railzwaylabs/metertrack/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewServer),
	fx.Provide(NewEngine),
	fx.Invoke(RunHTTP),
)

type ServerParams struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	Registry    *prometheus.Registry
	HTTPMetrics *observability.HTTPMetrics
	Clock       clock.Clock
	Cache       *cache.Store
	SchemaGate  bootstrap.SchemaGate
	Authorizer  *authorization.Authorizer
	BaselineSvc baselinedomain.Service
	ReadingSvc  readingdomain.Service
	UsageSvc    usagedomain.Service
}

type Server struct {
	cfg         config.Config
	log         *zap.Logger
	db          *gorm.DB
	registry    *prometheus.Registry
	httpMetrics *observability.HTTPMetrics
	clock       clock.Clock
	cache       *cache.Store
	schemaGate  bootstrap.SchemaGate
	authorizer  *authorization.Authorizer
	instanceID  string
	startedAt   time.Time

	baselinesvc baselinedomain.Service
	readingsvc  readingdomain.Service
	usagesvc    usagedomain.Service

	engine *gin.Engine
}

func NewServer(p ServerParams) *Server {
	return &Server{
		cfg:         p.Cfg,
		log:         p.Log.Named("http"),
		db:          p.DB,
		registry:    p.Registry,
		httpMetrics: p.HTTPMetrics,
		clock:       p.Clock,
		cache:       p.Cache,
		schemaGate:  p.SchemaGate,
		authorizer:  p.Authorizer,
		instanceID:  uuid.NewString(),
		startedAt:   time.Now().UTC(),
		baselinesvc: p.BaselineSvc,
		readingsvc:  p.ReadingSvc,
		usagesvc:    p.UsageSvc,
	}
}

// NewEngine builds the gin engine with middleware and all routes.
func NewEngine(s *Server) (*gin.Engine, error) {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(s.cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		s.RequestID(),
		s.RequestLogger(),
		s.Recovery(),
		s.Metrics(),
		s.CORS(),
	)
	engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrRouteNotFound)
	})

	s.engine = engine
	s.RegisterSystemRoutes()
	s.RegisterRoutes()
	return engine, nil
}

func RunHTTP(lc fx.Lifecycle, s *Server, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			s.log.Info("http server listening",
				zap.String("addr", srv.Addr),
				zap.String("instance_id", s.instanceID),
			)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.log.Info("http server shutting down")
			return srv.Shutdown(ctx)
		},
	})
}
