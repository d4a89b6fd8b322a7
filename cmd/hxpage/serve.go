package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/pthm/hxpage"
	hxpageecho "github.com/pthm/hxpage/adapters/echo"
	"github.com/pthm/hxpage/example/pages"
)

func newServeCommand(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo pages over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cc)
		},
	}
}

func newEcho(cc *cliContext) (*echo.Echo, *hxpage.Server, error) {
	key, err := cc.cfg.Server.KeyBytes()
	if err != nil {
		return nil, nil, err
	}
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, nil, fmt.Errorf("generate key: %w", err)
		}
		cc.logger.Warn().Msg("No server.key configured; using a random key for this process")
	}

	opts, err := appOptions(cc.cfg.App, cc.logger)
	if err != nil {
		return nil, nil, err
	}
	srv, err := hxpage.NewServer(pages.Build, key,
		hxpage.WithTitle("hxpage demo"),
		hxpage.WithDispatchPath(cc.cfg.Server.DispatchPath),
		hxpage.WithServerLogger(cc.logger),
		hxpage.WithSessionTTL(cc.cfg.Server.SessionTTL),
		hxpage.WithAppOptions(opts...),
	)
	if err != nil {
		return nil, nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cc.logger.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("Request")
			return nil
		},
	}))
	hxpageecho.Mount(e, srv)
	return e, srv, nil
}

func runServe(ctx context.Context, cc *cliContext) error {
	e, srv, err := newEcho(cc)
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		cc.logger.Info().Str("addr", cc.cfg.Server.Addr).Msg("Serving")
		errc <- e.Start(cc.cfg.Server.Addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Close(shutdownCtx); err != nil {
		cc.logger.Warn().Err(err).Msg("Closing sessions")
	}
	return e.Shutdown(shutdownCtx)
}
