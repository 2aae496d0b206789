package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"tarameteo/config"
	"tarameteo/internal/db"
	"tarameteo/internal/health"
	"tarameteo/internal/issuer"
	"tarameteo/internal/limiter"
	"tarameteo/internal/logs"
	"tarameteo/internal/middleware"
	"tarameteo/internal/sensor"
	"tarameteo/internal/weather"
)

// App описывает один HTTP-процесс (API датчиков либо issuer сертификатов).
type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server
	bind       string
}

func InitLogs(cfg *config.Config) error {
	return logs.Init(logs.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
}

// InitializeAPI: датчики, показания, потоки.
func (a *App) InitializeAPI(cfg *config.Config) error {
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}
	a.cfg = cfg

	/* 1) DB */
	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("db open failed: %w", err)
	}
	if err := db.Migrate(d); err != nil {
		return err
	}
	a.db = d

	/* 2) Домен */
	lim := limiter.New(cfg.Crypto.MaxConcurrency)
	sensors, err := NewSensorManager(cfg, d, lim)
	if err != nil {
		return err
	}
	readings := NewWeatherManager(d, sensors)

	/* 3) Router + middleware */
	a.newRouter()
	health.RegisterRoutesWithDB(a.Router, a.db) // /healthz, /readyz
	sensor.RegisterRoutes(a.Router, sensors)
	weather.RegisterRoutes(a.Router, readings, sensors)

	a.bind = net.JoinHostPort(cfg.Server.Address, cfg.Server.HTTPPort)
	a.logRoutes()
	return nil
}

// InitializeIssuer: только POST /v1/certs и /healthz. БД не нужна.
func (a *App) InitializeIssuer(cfg *config.Config) error {
	if err := cfg.ValidateIssuer(); err != nil {
		return err
	}
	a.cfg = cfg

	svc, err := NewIssuerService(cfg, limiter.New(cfg.Crypto.MaxConcurrency))
	if err != nil {
		return err
	}
	a.newRouter()
	health.RegisterRoutes(a.Router)
	issuer.RegisterRoutes(a.Router, issuer.NewHandler(svc, cfg.Issuer.CertDays, cfg.Issuer.RequestTimeout), cfg.Issuer.Token)

	a.bind = net.JoinHostPort(cfg.Issuer.Address, cfg.Issuer.HTTPPort)
	a.logRoutes()
	return nil
}

func (a *App) newRouter() {
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)
}

func (a *App) logRoutes() {
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := rt.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		logs.Logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
}

// Run слушает до SIGINT/SIGTERM, затем гасит сервер.
func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return errors.New("server not initialized")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve: то же, что Run, но остановка по ctx.
func (a *App) Serve(ctx context.Context) error {
	defer a.Close()

	// без WriteTimeout: WebSocket-подписки живут дольше одного запроса
	a.httpServer = &http.Server{
		Addr:              a.bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logs.Logger.Infof("HTTP listening on %s", a.bind)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logs.Logger.Info("shutdown signal received")
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(shCtx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}

func (a *App) Close() {
	if a.db == nil {
		return
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	a.db = nil
}
