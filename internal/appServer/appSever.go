// launching the processor server and its redis cache
package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/pagestudio/config"
	cache "github.com/ds124wfegd/pagestudio/internal/database/redis"
	"github.com/ds124wfegd/pagestudio/internal/pkg/processor"
	"github.com/ds124wfegd/pagestudio/internal/service"
	"github.com/ds124wfegd/pagestudio/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewHandler builds the processor routes. The returned cleanup closes the cache client.
func NewHandler(ctx context.Context, cfg *config.Config) (http.Handler, func()) {
	resultCache, closeCache := newCache(ctx, cfg.Cache)

	imgProcessor := processor.NewImageProcessor(cfg.Processor)
	imgService := service.NewImageService(imgProcessor, resultCache, cfg.Processor.MaxUploadSize)
	imgHandler := transport.NewImageHandler(imgService, cfg.Processor.MaxUploadSize)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	return transport.InitRoutes(imgHandler, cfg.Processor.RequestTimeout), closeCache
}

// Serve runs the processor until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, cfg *config.Config) error {
	handler, cleanup := NewHandler(ctx, cfg)
	defer cleanup()

	srv := new(Server)
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Run(cfg, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logrus.WithField("addr", cfg.Server.Host+":"+cfg.Server.Port).Info("App Started")

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return err
	}

	logrus.Info("App Shutting Down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
		return err
	}
	return nil
}

// NewServer runs the processor until SIGINT or SIGTERM.
func NewServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	return Serve(ctx, cfg)
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.ResultCache, func()) {
	if !cfg.Enabled {
		return cache.NoopCache{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logrus.WithError(err).Warn("redis unavailable, result cache disabled")
		_ = client.Close()
		return cache.NoopCache{}, func() {}
	}

	logrus.WithField("addr", cfg.Addr).Info("result cache connected")
	return cache.NewCacheRepository(client, cfg.TTL), func() {
		if err := client.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close redis client")
		}
	}
}
