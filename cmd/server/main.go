package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-session-server/auth"
	"github.com/jrsteele09/go-session-server/internal/config"
	"github.com/jrsteele09/go-session-server/internal/logger"
	"github.com/jrsteele09/go-session-server/internal/metrics"
	"github.com/jrsteele09/go-session-server/server"
	fakesessionrepo "github.com/jrsteele09/go-session-server/sessions/repofake"
	"github.com/jrsteele09/go-session-server/storage/mongodb"
	"github.com/jrsteele09/go-session-server/storage/postgres"
	"github.com/jrsteele09/go-session-server/token"
	fakeuserrepo "github.com/jrsteele09/go-session-server/users/repofake"
	"github.com/rs/zerolog/log"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}
	l := logger.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	repos, closeStore, err := openStore(context.Background(), c)
	if err != nil {
		return err
	}
	defer closeStore()

	codec, err := token.NewCodecFromSecrets(c.GetAccessTokenSecret(), c.GetRefreshTokenSecret(),
		token.WithTokenExpiry(c.GetAccessTokenTTL(), c.GetRefreshTokenTTL()))
	if err != nil {
		return err
	}
	m := metrics.New("session_server")

	service, err := auth.NewService(repos, codec,
		auth.WithSessionTTL(c.GetRefreshTokenTTL()),
		auth.WithLogger(l.With().Str("component", "auth").Logger()),
		auth.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	handler, err := server.New(c, service, codec, m)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

// openStore returns the repositories selected by STORE_DRIVER and a func releasing them.
func openStore(ctx context.Context, c config.Config) (auth.Repos, func(), error) {
	timeout := c.GetStoreTimeout()

	switch c.GetStoreDriver() {
	case config.StoreDriverMongo:
		store, err := mongodb.Connect(ctx, c.GetMongoURI(), c.GetMongoDatabase(), timeout)
		if err != nil {
			return auth.Repos{}, nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return auth.Repos{}, nil, err
		}
		log.Info().Str("database", c.GetMongoDatabase()).Msg("using mongodb store")
		return auth.Repos{Users: store.Users(), Sessions: store.Sessions()}, func() {
			if err := store.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("closing mongodb store")
			}
		}, nil

	case config.StoreDriverPostgres:
		if err := postgres.Migrate(c.GetDatabaseURL()); err != nil {
			return auth.Repos{}, nil, err
		}
		store, err := postgres.Open(ctx, c.GetDatabaseURL(), timeout)
		if err != nil {
			return auth.Repos{}, nil, err
		}
		log.Info().Msg("using postgres store")
		return auth.Repos{Users: store.Users(), Sessions: store.Sessions()}, store.Close, nil

	default:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return auth.Repos{
			Users:    fakeuserrepo.NewFakeUserRepo(),
			Sessions: fakesessionrepo.NewFakeSessionRepo(),
		}, func() {}, nil
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
