package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-board/internal/config"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
	"github.com/rocketscienceinc/tictactoe-board/internal/repository"
	"github.com/rocketscienceinc/tictactoe-board/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-board/internal/service"
	"github.com/rocketscienceinc/tictactoe-board/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-board/transport/rest"
	"github.com/rocketscienceinc/tictactoe-board/transport/websocket"
)

const shutdownTimeout = 5 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	scoreRepo, closeStorage, err := newScoreRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closeStorage(); err != nil {
			log.Error("could not close storage", "driver", conf.Storage.Driver, "error", err)
		}
	}()

	players := entity.Players{Player1: conf.Game.Player1Name, Player2: conf.Game.Player2Name}
	ledger := service.NewLedger(scoreRepo, players)
	if err = ledger.Load(ctx); err != nil {
		log.Warn("could not load scores, starting from zero", "error", err)
	}

	gameManager, err := usecase.NewGameManager(logger, ledger, service.NewBotService(nil), usecase.Settings{
		DefaultSize:    conf.Game.DefaultSize,
		MinSize:        conf.Game.MinSize,
		MaxSize:        conf.Game.MaxSize,
		DefaultMode:    entity.Mode(conf.Game.DefaultMode),
		AutoResetDelay: conf.Game.AutoResetDelay,
	})
	if err != nil {
		return fmt.Errorf("could not create game manager: %w", err)
	}
	defer gameManager.Close()

	router := rest.NewRouter(logger, gameManager, websocket.New(logger, gameManager))
	server := rest.NewServer(conf.HTTPPort, router)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := server.Start(); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// closing the manager first ends the websocket streams, which Shutdown does not wait for
	gameManager.Close()

	return server.Shutdown(shutdownCtx)
}

// newScoreRepository opens the configured storage and returns the score store with its closer.
func newScoreRepository(ctx context.Context, conf *config.Config) (repository.ScoreRepository, func() error, error) {
	switch conf.Storage.Driver {
	case config.StorageSQLite:
		sqlite, err := storage.NewSQLite(conf.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqlite.Init(ctx); err != nil {
			_ = sqlite.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteScoreRepository(sqlite.Connection), sqlite.Close, nil
	default:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedis(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewScoreRepository(redisStorage), redisStorage.Close, nil
	}
}
