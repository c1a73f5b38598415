// @title Trivion API
// @version 1.0
// @description Real-time multiplayer quiz service — socket.io message channel plus an administrator REST surface.
// @BasePath /
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"trivion/audit"
	"trivion/auth"
	"trivion/broadcast"
	_ "trivion/docs"
	"trivion/httpapi"
	"trivion/logging"
	"trivion/metrics"
	"trivion/room"
	"trivion/transport"

	"trivion/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	m := metrics.New(prometheus.DefaultRegisterer)

	var db *gorm.DB
	if cfg.PostgresDSN != "" {
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
		if err != nil {
			logger.Fatalw("connecting to postgres", "error", err)
		}
		logger.Info("postgres connected")
	} else {
		logger.Info("POSTGRES_DSN unset, audit trail degraded to log-only sink")
	}
	auditWriter, err := audit.NewWriter(db, logger)
	if err != nil {
		logger.Fatalw("building audit writer", "error", err)
	}

	var rooms *room.Registry
	bus := newBus(cfg, logger, m, func(code string) (*room.Room, bool) {
		if rooms == nil {
			return nil, false
		}
		return rooms.Find(code)
	})

	rooms = room.New(bus, logger)
	rooms.SetMetrics(m)
	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Fatalw("building token issuer", "error", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigins},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))

	httpapi.New(rooms, issuer, auditWriter, logger).Register(router)

	srv := transport.New(rooms, issuer, auditWriter, logger, cfg.CORSOrigins)
	srv.Mount(router)

	// The HTTP listener and the signal-triggered shutdown run as one
	// supervised group: either the listener dies on its own or a signal
	// arrives and tells it to stop, and either way we wait for both.
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	httpSrv := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	g.Go(func() error {
		logger.Infow("trivion listening", "port", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		signalC := make(chan os.Signal, 1)
		signal.Notify(signalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		select {
		case <-signalC:
			logger.Info("shutting down")
		case <-ctx.Done():
		}
		srv.Close()
		return httpSrv.Shutdown(context.Background())
	})

	defer cancel()
	if err := g.Wait(); err != nil {
		logger.Fatalw("server exited", "error", err)
	}
}

// newBus builds the in-process broadcast bus, wrapped with a
// RedisForwarder when PUBSUB_URL is configured — otherwise Redis is
// never dialed, matching the "optional scaling hook" design. findRoom
// lets onDrop turn a queue-overflow drop into a real disconnect (the
// same reconnection window a heartbeat timeout opens) instead of only
// counting it, per §4.4(b)/§7.
func newBus(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics, findRoom func(string) (*room.Room, bool)) broadcast.Emitter {
	onDrop := func(roomCode string, memberID uuid.UUID) {
		m.BroadcastDrops.Inc()
		logger.Debugw("dropped subscriber", "room", roomCode, "member", memberID)
		if r, ok := findRoom(roomCode); ok {
			r.Disconnect(memberID)
		}
	}
	bus := broadcast.New(onDrop)
	if cfg.PubSubURL == "" {
		return bus
	}
	opts, err := redis.ParseURL(cfg.PubSubURL)
	if err != nil {
		logger.Fatalw("parsing PUBSUB_URL", "error", err)
	}
	client := redis.NewClient(opts)
	logger.Info("redis pub/sub forwarding enabled")
	return broadcast.NewRedisForwarder(bus, client, logger)
}
