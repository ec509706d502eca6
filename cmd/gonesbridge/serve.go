package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/gonesbridge/pkg/gonesbridge"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
)

const serveHelp = `
Serve the frame protocol to a host process over stdin and stdout.

Each line is one JSON message, e.g. {"type":"gonesPlay","name":"mario.nes","data":"<base64>"}.
The frame writes gonesReady, gonesName and gonesExit lines to stdout; logs go
to stderr. When stdin ends, a running session is exited (its gonesExit is
still written) and the command returns.
`

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the frame protocol on stdio",
		Long:  strings.TrimSpace(serveHelp),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			if cfg.ModulePath == "" {
				return fmt.Errorf("%w: --module is required", gonesbridge.ErrInvalidConfig)
			}

			conn := protocol.NewStreamConn(cmd.InOrStdin(), cmd.OutOrStdout())
			b, err := gonesbridge.New(bridgeConfig(cfg),
				gonesbridge.WithLogger(logger),
				gonesbridge.WithConn(conn),
			)
			if err != nil {
				_ = conn.Close()
				return fmt.Errorf("create bridge: %w", err)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			if err := b.Start(cmd.Context()); err != nil {
				_ = b.Stop()
				_ = conn.Close()
				return fmt.Errorf("start: %w", err)
			}

			select {
			case <-b.Done():
				logger.Info("host closed the connection, stopping...")
			case <-sigCh:
				logger.Info("received signal, stopping...")
			}

			if err := b.Stop(); err != nil {
				return fmt.Errorf("stop: %w", err)
			}
			return nil
		},
	}

	bindModuleFlags(cmd, c)
	return cmd
}
