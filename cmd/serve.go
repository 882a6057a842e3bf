package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"

	"github.com/desertthunder/bitesized/internal/server"
	"github.com/desertthunder/bitesized/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the mock backend until interrupted.
//
// Flags override the [server] section of the config file.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host, port, secret := r.config.Server.Host, r.config.Server.Port, r.config.Server.JWTSecret
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}
	if cmd.IsSet("secret") {
		secret = cmd.String("secret")
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535", shared.ErrInvalidArgument)
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	backend, err := server.NewMockBackend(server.MockOpts{
		Secret: secret,
		NoSeed: cmd.Bool("empty"),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	router := server.NewBasicRouter()
	router.Use(server.DefaultMiddleware(logger)...)
	router.Handler(backend)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	return server.Run(ctx, net.JoinHostPort(host, strconv.Itoa(port)), router, logger)
}
