package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/cardbattle/battle-server-go/internal/auth"
	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/config"
	"github.com/cardbattle/battle-server-go/internal/deck"
	"github.com/cardbattle/battle-server-go/internal/game"
	"github.com/cardbattle/battle-server-go/internal/game/item"
	"github.com/cardbattle/battle-server-go/internal/game/replay"
	"github.com/cardbattle/battle-server-go/internal/repository"
	"github.com/cardbattle/battle-server-go/internal/server"
	"github.com/cardbattle/battle-server-go/internal/session"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting battle server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Storage: Postgres when configured, process memory otherwise.
	var (
		catalog   card.Catalog = card.Builtin()
		deckRepo  deck.Repository
		acctStore auth.Store
	)
	if cfg.Database.URL != "" {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("failed to apply schema", zap.Error(err))
		}

		stats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)

		loaded, err := repository.NewCardRepository(db).LoadCatalog(ctx)
		if err != nil {
			logger.Fatal("failed to load card catalog", zap.Error(err))
		}
		if loaded.Len() > 0 {
			catalog = loaded
		} else {
			logger.Warn("cards table is empty; using the built-in catalog")
		}
		deckRepo = repository.NewDeckRepository(db)
		acctStore = repository.NewAccountRepository(db)
	} else {
		logger.Warn("no database configured; accounts and decks are kept in memory")
		deckRepo = deck.NewMemoryRepository()
		acctStore = auth.NewMemoryStore()
	}

	sessionMgr := session.NewManager(cfg.Server.LeasePeriod, logger)
	logger.Info("session manager initialized",
		zap.Duration("lease_period", cfg.Server.LeasePeriod),
	)
	go sessionMgr.CleanupExpiredSessions(ctx)

	accounts := auth.NewManager(acctStore, cfg.Auth.BcryptCost, logger)

	decks := deck.NewService(deck.NewValidator(deck.Rules{
		Size:      cfg.Game.DeckSize,
		MaxCopies: cfg.Game.MaxCopies,
		Unlimited: cfg.Game.UnlimitedCardIDs,
	}, catalog), deckRepo, logger)

	hub := server.NewHub(logger)
	go hub.Run(ctx)

	validator := session.NewValidator(sessionMgr)
	services := game.NewServices(game.Options{
		UnlockRound:         cfg.Game.MythicalUnlockRound,
		StartingHandSize:    cfg.Game.StartingHandSize,
		MainCharacterHealth: cfg.Game.MainCharacterHealth,
		FieldCapacity:       cfg.Game.FieldCapacity,
		StrictInvariants:    cfg.Game.StrictInvariants,
		FirstTurnDraw:       cfg.Game.FirstTurnDraw,
	}, validator, catalog, decks, hub, logger)
	services.Replays = replay.NewRecorder(cfg.Game.ReplayDir, logger)
	logger.Info("game services initialized",
		zap.Int("mythical_unlock_round", cfg.Game.MythicalUnlockRound),
		zap.Bool("strict_invariants", cfg.Game.StrictInvariants),
		zap.Bool("first_turn_draw", cfg.Game.FirstTurnDraw),
		zap.String("replay_dir", cfg.Game.ReplayDir),
	)

	throttle := server.NewThrottle(cfg.Throttle.RequestsPerSecond, cfg.Throttle.Burst)
	battleServer := server.NewBattleServer(services, item.NewService(services), decks, accounts, sessionMgr, throttle, logger)

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.ChainUnaryInterceptors(
			server.RecoveryInterceptor(logger),
			server.LoggingInterceptor(logger),
			server.ThrottleInterceptor(throttle),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.Server.GRPC.KeepaliveTime,
			Timeout: cfg.Server.GRPC.KeepaliveTimeout,
		}),
		grpc.MaxConcurrentStreams(uint32(cfg.Server.GRPC.MaxConcurrentStreams)),
	)
	server.RegisterBattleServer(grpcServer, battleServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	go func() {
		if wsErr := server.StartWebSocketServer(ctx, cfg.Server.WebSocket, validator, hub, logger); wsErr != nil {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	logger.Info("battle server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	sessionMgr.CloseAll()
	grpcServer.GracefulStop()

	openRooms := services.Directory.ActiveRoomCount()
	services.Shutdown()
	logger.Info("battle server stopped",
		zap.Int("abandoned_rooms", openRooms),
	)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
