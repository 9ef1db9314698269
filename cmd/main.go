package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weiawesome/jobboard-chat/internal/auth"
	"github.com/weiawesome/jobboard-chat/internal/config"
	"github.com/weiawesome/jobboard-chat/internal/domain"
	chatgrpc "github.com/weiawesome/jobboard-chat/internal/grpc"
	"github.com/weiawesome/jobboard-chat/internal/handler"
	"github.com/weiawesome/jobboard-chat/internal/hub"
	"github.com/weiawesome/jobboard-chat/internal/kafka"
	"github.com/weiawesome/jobboard-chat/internal/registry"
	"github.com/weiawesome/jobboard-chat/internal/repository"
	"github.com/weiawesome/jobboard-chat/internal/service"
	"github.com/weiawesome/jobboard-chat/pkg/database"
	"github.com/weiawesome/jobboard-chat/pkg/jwt"
	pkglog "github.com/weiawesome/jobboard-chat/pkg/log"
	"github.com/weiawesome/jobboard-chat/pkg/pubsub"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "chat-service"})
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat-service")

	// Database
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, domain.Models()...); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}
	repo := repository.NewGormChatRepository(db)

	// Token verification
	manager, err := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, cfg.Auth.Leeway)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token manager")
	}
	verifier := auth.NewJWTVerifier(manager, repo)

	// Presence mirror
	var reg registry.Registry = registry.NoopRegistry{}
	if cfg.Redis.Enabled {
		redisReg, err := registry.NewRedisRegistry(cfg.Redis, cfg.Server.InstanceID)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize redis registry")
		}
		reg = redisReg
		logger.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")
	}
	defer reg.Close()

	// Push hand-off
	publisher, channel, err := newPublisher(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Notifications.PushDriver).Msg("failed to initialize push publisher")
	}
	defer publisher.Close()

	// Hub and service
	h := hub.NewHub(hub.NewSessionRegistry(), hub.NewRoomIndex())
	notifier := service.NewNotifier(repo, h.Sessions(), publisher, channel, cfg.Notifications.PreviewLength)
	chatSvc := service.NewChatService(h, repo, notifier, service.NewThrottle(cfg.Throttle), reg, cfg.Notifications.DispatchTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := chatSvc.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start chat service")
	}
	defer chatSvc.Stop()

	// gRPC health
	var grpcServer *chatgrpc.Server
	if cfg.GRPC.Enabled {
		grpcAddr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		grpcServer, err = chatgrpc.StartGRPCServer(grpcAddr, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to start grpc server")
		}
		defer grpcServer.Shutdown()
	}

	// Handlers
	wsHandler := handler.NewWSHandler(h, chatSvc, verifier, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(h, repo, verifier, service.NewAccessGuard(repo))

	router := mux.NewRouter()
	wsHandler.RegisterRoutes(router)
	httpHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      pkglog.HTTPMiddleware(logger)(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Str("ws_path", cfg.WebSocket.Path).Msg("chat-service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down chat-service")

	if grpcServer != nil {
		grpcServer.SetServing(false)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	h.CloseAll(websocket.CloseGoingAway, "server shutting down")

	logger.Info().Msg("chat-service stopped")
}

// newPublisher picks the hand-off for created notifications and the
// channel or topic it publishes to.
func newPublisher(cfg *config.Config) (pubsub.Publisher, string, error) {
	switch cfg.Notifications.PushDriver {
	case "kafka":
		p, err := kafka.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			return nil, "", err
		}
		return p, cfg.Kafka.Topic, nil
	case "redis":
		redisCfg := pubsub.DefaultRedisConfig()
		redisCfg.Address = cfg.Redis.Address
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		p, err := pubsub.NewRedisPublisher(redisCfg)
		if err != nil {
			return nil, "", err
		}
		return p, cfg.Redis.NotifyChannel, nil
	case "", "none":
		return pubsub.NoopPublisher{}, "", nil
	default:
		return nil, "", fmt.Errorf("unknown push driver %q", cfg.Notifications.PushDriver)
	}
}
