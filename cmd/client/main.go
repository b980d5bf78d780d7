package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/board-client/internal/config"
	"github.com/DoyleJ11/board-client/internal/httpapi"
	"github.com/DoyleJ11/board-client/internal/identity"
	"github.com/DoyleJ11/board-client/internal/layout"
	"github.com/DoyleJ11/board-client/internal/notify"
	"github.com/DoyleJ11/board-client/internal/session"
	"github.com/DoyleJ11/board-client/internal/store"
	"github.com/DoyleJ11/board-client/internal/ws"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	gameID     = flag.String("game", "", "game id (overrides game.id)")
)

func main() {
	flag.Parse()

	if *gameID != "" {
		os.Setenv("BOARD_GAME_ID", *gameID)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("client stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("client stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	hc := &http.Client{Timeout: cfg.API.Timeout}
	st := store.New()

	dispatcher := notify.NewDispatcher(notify.LogSink(logger.Named("cues")), logger)
	st.Subscribe(dispatcher.Listener())
	cards := &notify.CardGate{}
	st.Subscribe(cards.Listener())

	ident := identity.NewClient(cfg.API.BaseURL, cfg.API.Token, hc, logger)
	boardSrc := layout.NewClient(cfg.API.BaseURL, hc, logger)

	mgr := ws.NewManager(ws.Options{
		BaseURL:      cfg.API.BaseURL,
		DialTimeout:  cfg.WS.DialTimeout,
		WriteTimeout: cfg.WS.WriteTimeout,
	}, st, ident, &ws.WebsocketDialer{ReadLimit: cfg.WS.ReadLimit}, logger.Named("ws"))

	sess := session.New(ctx, st, mgr, cards, session.Options{Tick: cfg.Session.Tick}, logger.Named("session"))

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.SetupRoutes(httpapi.Deps{Session: sess, Board: boardSrc, Log: logger.Named("http")}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return supervise(gctx, mgr, cfg.Game.ID, cfg.Reconnect, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err := g.Wait()
	sess.Close()
	return multierr.Append(err, mgr.Close())
}

func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch strings.ToLower(cfg.Level) {
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
