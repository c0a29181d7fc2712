package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"cribbage-rooms/backend/internal/config"
	"cribbage-rooms/backend/internal/database"
	"cribbage-rooms/backend/internal/handlers"
	"cribbage-rooms/backend/internal/middleware"
	"cribbage-rooms/backend/internal/rooms"
	"cribbage-rooms/backend/internal/tracing"
	"cribbage-rooms/backend/pkg/websocket"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "cribbage-rooms"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	setupLogger(cfg)

	ctx := context.Background()
	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName: serviceName,
		Environment: cfg.AppEnv,
		PrettyPrint: cfg.IsDevelopment(),
		Exporter:    cfg.TracesExporter,
	})
	if err != nil {
		log.WithError(err).Fatal("tracing init")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.WithError(err).Warn("tracing shutdown")
		}
	}()

	db, err := database.OpenAndMigrate(ctx, cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("db open/migrate")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("db close")
		}
	}()

	hubRef := websocket.NewHubRef(websocket.NewHub())
	go runHub(hubRef)

	store := rooms.NewStore()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.CORS(cfg))
	r.GET("/healthz", handlers.HealthHandler(store, db))

	api := r.Group("/api")
	handlers.RegisterRoomRoutes(api, store, db, cfg)

	r.GET("/ws", handlers.WebSocketHandler(hubRef.Get, store, db, cfg))

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("server error")
	}

	if h, ok := hubRef.Get(); ok {
		h.Stop()
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
}

// runHub keeps a hub running, replacing it if Run panics. A normal return
// (after Stop) ends the loop.
func runHub(ref *websocket.HubRef) {
	for {
		hub, ok := ref.Get()
		if !ok {
			ref.Set(websocket.NewHub())
			continue
		}
		panicked := false
		func() {
			defer func() {
				if r := recover(); r != nil {
					panicked = true
					log.WithField("panic", r).Errorf("hub.Run panic\n%s", debug.Stack())
				}
			}()
			hub.Run()
		}()
		if !panicked {
			return
		}
		// Clients of the dead hub must not block on it.
		hub.Stop()
		ref.Set(websocket.NewHub())
		time.Sleep(time.Second)
	}
}

func setupLogger(cfg config.Config) {
	if lvl := cfg.LogLevel; lvl != "" {
		level, err := log.ParseLevel(lvl)
		if err != nil {
			log.WithError(err).Fatal("could not parse level")
		}
		log.SetLevel(level)
	}
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/healthz" {
			return
		}
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"remote":   c.ClientIP(),
		}).Info("request")
	}
}
