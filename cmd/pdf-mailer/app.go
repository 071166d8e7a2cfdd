package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"leadpdf/internal/api"
	"leadpdf/internal/config"
	"leadpdf/internal/constants"
	"leadpdf/internal/deduplication"
	"leadpdf/internal/dispatch"
	"leadpdf/internal/logger"
	"leadpdf/internal/recordsink"
	"leadpdf/internal/requestlog"
	"leadpdf/pkg/circuitbreaker"
	"leadpdf/pkg/health"
	"leadpdf/pkg/logging"
	"leadpdf/pkg/metrics"
	"leadpdf/pkg/tracing"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	guard          *deduplication.Guard
	server         *http.Server
	router         *gin.Engine
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	ctx = logging.WithServiceName(ctx, constants.ServiceName)

	for _, warning := range config.Warnings(a.config) {
		a.logger.WarnwCtx(ctx, "Configuration warning", "warning", warning)
	}

	tp, err := tracing.Init(a.config.Tracing, a.config.Tracing.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.Register()

	if err := a.initRouter(ctx); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	return nil
}

func (a *App) initRouter(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	clock := deduplication.SystemClock()
	a.guard = deduplication.NewGuard(
		deduplication.NewMemoryRepository(clock),
		clock,
		a.config.Deduplication,
		a.logger,
	)

	store := requestlog.NewStore(a.config.RequestLog.Path)

	var breaker *circuitbreaker.Wrapper
	if a.config.CircuitBreaker.Enabled {
		breaker = circuitbreaker.NewWrapper(circuitbreaker.FromSettings("record-sink", a.config.CircuitBreaker))
	}
	sink := recordsink.New(a.config.RecordSink, breaker)

	dispatcher := dispatch.New(a.config.Mail, a.config.Server.AssetsDir, dispatch.NewTransport(a.config.Mail))
	if err := dispatcher.CheckDocument(); err != nil {
		a.logger.WarnwCtx(ctx, "Document not found, sends will fail until it is added",
			"path", dispatcher.DocumentPath(),
		)
	}

	registry := health.NewCheckerRegistry()
	registry.Register(health.NewFileChecker("document", dispatcher.DocumentPath()))
	registry.Register(health.NewDirWritableChecker("request_log", filepath.Dir(store.Path())))
	registry.RegisterOptional(health.NewFuncChecker("email_provider", func(context.Context) error {
		if !a.config.Mail.MailConfigured() {
			return dispatch.ErrNotConfigured
		}
		return nil
	}))
	registry.RegisterOptional(health.NewFuncChecker("record_sink", func(context.Context) error {
		if !sink.Configured() {
			return recordsink.ErrNotConfigured
		}
		if breaker != nil && breaker.IsOpen() {
			return circuitbreaker.ErrOpen
		}
		return nil
	}))

	handler := api.NewHandler(api.Dependencies{
		Guard:     a.guard,
		Log:       store,
		Sink:      sink,
		Mailer:    dispatcher,
		Health:    registry,
		AssetsDir: a.config.Server.AssetsDir,
		Logger:    a.logger,
	})

	a.router = api.NewRouter(ctx, api.RouterDependencies{
		Config:  a.config,
		Handler: handler,
		Logger:  a.logger,
	})
	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(ctx, "HTTP server starting", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.guard.RunJanitor(gCtx, a.config.Deduplication.SweepInterval)
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
