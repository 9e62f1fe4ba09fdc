package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ecn/internal/server"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/web"
)

// webOptions maps the [server] config section onto the dashboard options.
func (r *Runner) webOptions() web.Options {
	cfg := r.config.Server
	opts := web.Options{
		API:           r.api,
		Auth:          r.authSvc,
		Sessions:      r.sessions,
		Activities:    r.activities,
		Logger:        shared.WithLogger(r.logger, "component", "web"),
		SecureCookies: cfg.SecureCookies,
		TrustProxy:    cfg.TrustedProxy,
		LoginRate:     rate.Limit(cfg.LoginRate),
		LoginBurst:    cfg.LoginBurst,
	}
	if cfg.CSRFKey != "" {
		opts.CSRFKey = []byte(cfg.CSRFKey)
	}
	if cfg.CookieKey != "" {
		opts.CookieKey = []byte(cfg.CookieKey)
	}
	return opts
}

// Serve runs the dashboard until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	if err := r.stores(ctx); err != nil {
		return err
	}
	app, err := web.New(r.webOptions())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Addr(), app.Handler(), r.logger)
	if cmd.Bool("open") {
		go func() {
			if err := shared.OpenBrowser(browseURL(cfg)); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}()
	}
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// browseURL is the address a local browser can reach the dashboard on.
func browseURL(cfg shared.ServerConfig) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Port)) + "/"
}
