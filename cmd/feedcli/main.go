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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/snapgram/go-feed-core/auth"
	"github.com/snapgram/go-feed-core/feed"
	"github.com/snapgram/go-feed-core/httpbackend"
	"github.com/snapgram/go-feed-core/internal/config"
	"github.com/snapgram/go-feed-core/internal/metrics"
	"github.com/snapgram/go-feed-core/session"
	"github.com/snapgram/go-feed-core/signup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("feedcli exited")
	}
	log.Info().Msg("feedcli stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if c.GetEnv() == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	httpClient := &http.Client{Timeout: time.Duration(c.GetHTTPTimeoutSeconds()) * time.Second}

	ctx := context.Background()
	authClient, err := httpbackend.NewAuthClient(ctx, httpbackend.AuthClientConfig{
		BaseURL:    c.GetAPIBaseURL(),
		APIKey:     c.GetAPIKey(),
		Issuer:     c.GetOIDCIssuer(),
		HTTPClient: httpClient,
	}, httpbackend.WithAuthLogger(log.Logger))
	if err != nil {
		return fmt.Errorf("httpbackend.NewAuthClient: %w", err)
	}
	defer authClient.Close()

	contentClient, err := httpbackend.NewContentClient(httpbackend.ContentClientConfig{
		BaseURL:     c.GetAPIBaseURL(),
		APIKey:      c.GetAPIKey(),
		AccessToken: authClient.AccessToken,
		HTTPClient:  httpClient,
	}, httpbackend.WithContentLogger(log.Logger))
	if err != nil {
		return fmt.Errorf("httpbackend.NewContentClient: %w", err)
	}

	collector := metrics.NewCollector(prometheus.NewRegistry())

	sessionStore := session.NewStore()
	controller, err := auth.NewSessionController(authClient, sessionStore,
		auth.WithLogger(log.Logger), auth.WithMetrics(collector))
	if err != nil {
		return fmt.Errorf("auth.NewSessionController: %w", err)
	}
	defer controller.Close()

	if _, err := signup.NewCoordinator(signup.Backends{Auth: authClient, Content: contentClient},
		signup.WithLogger(log.Logger)); err != nil {
		return fmt.Errorf("signup.NewCoordinator: %w", err)
	}

	feedStore := feed.NewStore()
	if _, err := feed.NewEngine(feedStore, contentClient,
		feed.WithEngineLogger(log.Logger), feed.WithEngineMetrics(collector)); err != nil {
		return fmt.Errorf("feed.NewEngine: %w", err)
	}

	sessionStore.Subscribe(func(s session.Session) {
		log.Info().Str("status", string(s.Status)).Str("user_id", s.UserID).Msg("session changed")
	})

	if err := controller.RestoreSession(ctx); err != nil {
		log.Warn().Err(err).Msg("no session restored")
	}
	controller.ObserveSessionChanges()

	waitForStopSignal()
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
