package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/gonesbridge/pkg/gonesbridge"
	"github.com/bft-labs/gonesbridge/pkg/log"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
	"github.com/bft-labs/gonesbridge/plugins/romwatcher"
)

const playHelp = `
Load the emulator module and play a ROM.

While a session runs, type a command and press enter:
  s   save state
  l   load state
  q   exit (battery save is written)

Interrupt (Ctrl-C) exits the session the same way; a second interrupt
stops without waiting. With --watch, ROMs written to the directory start
a new session whenever the previous one has exited.
`

func newPlayCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [rom]",
		Short: "Play a ROM",
		Long:  strings.TrimSpace(playHelp),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			if cfg.ModulePath == "" {
				return fmt.Errorf("%w: --module is required", gonesbridge.ErrInvalidConfig)
			}
			if len(args) == 0 && cfg.WatchDir == "" {
				return errors.New("a ROM or --watch is required")
			}

			var rom protocol.Message
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read rom: %w", err)
				}
				rom = protocol.NewPlay(filepath.Base(args[0]), data)
			}

			opts := []gonesbridge.Option{gonesbridge.WithLogger(logger)}
			if cfg.WatchDir != "" {
				opts = append(opts, romwatcher.WithROMWatcher(romwatcher.Config{Dir: cfg.WatchDir}))
			}

			b, err := gonesbridge.New(bridgeConfig(cfg), opts...)
			if err != nil {
				return fmt.Errorf("create bridge: %w", err)
			}
			return play(cmd.Context(), b, rom, cfg.WatchDir != "", cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}

	bindModuleFlags(cmd, c)
	cmd.Flags().StringVar(&c.cfg.WatchDir, "watch", c.cfg.WatchDir, "directory to watch for ROMs")
	return cmd
}

// bindModuleFlags adds the flags shared by commands that run a module.
func bindModuleFlags(cmd *cobra.Command, c *cli) {
	cmd.Flags().StringVar(&c.cfg.ModulePath, "module", c.cfg.ModulePath, "emulator module script")
	cmd.Flags().DurationVar(&c.cfg.SurfacePollInterval, "surface-poll", c.cfg.SurfacePollInterval, "first delay between rendering surface lookups")
	cmd.Flags().DurationVar(&c.cfg.SurfaceMaxInterval, "surface-max", c.cfg.SurfaceMaxInterval, "maximum delay between rendering surface lookups")
	cmd.Flags().DurationVar(&c.cfg.ShutdownTimeout, "shutdown-timeout", c.cfg.ShutdownTimeout, "how long to wait for a session to save on exit")
}

// play drives one bridge from the terminal. It returns once a session has
// exited (or, when watching, once interrupted).
func play(ctx context.Context, b *gonesbridge.Bridge, rom protocol.Message, watching bool, in io.Reader, out io.Writer, logger log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := b.Start(ctx); err != nil {
		_ = b.Stop()
		return fmt.Errorf("start: %w", err)
	}

	host := b.Host()
	done := make(chan error, 1)
	go func() { done <- pump(ctx, host, rom, watching, out) }()

	go readCommands(ctx, host, in, logger)

	var err error
	interrupted := false
	for waiting := true; waiting; {
		select {
		case err = <-done:
			waiting = false
		case <-sigCh:
			if interrupted || b.Status() != gonesbridge.StatePlaying {
				logger.Info("received signal, stopping...")
				waiting = false
				break
			}
			interrupted = true
			logger.Info("received signal, exiting session...")
			if err := host.Send(ctx, protocol.NewExit()); err != nil {
				logger.Warn("send exit failed", log.Err(err))
			}
		}
	}

	cancel()
	if stopErr := b.Stop(); stopErr != nil && err == nil {
		err = fmt.Errorf("stop: %w", stopErr)
	}
	return err
}

// pump prints frame messages and hands the ROM over once the frame is
// ready. It returns after the first session exits unless watching.
func pump(ctx context.Context, host protocol.Conn, rom protocol.Message, watching bool, out io.Writer) error {
	for {
		msg, err := host.Receive(ctx)
		if err != nil {
			if errors.Is(err, protocol.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		switch m := msg.(type) {
		case protocol.Ready:
			if rom != nil {
				if err := host.Send(ctx, rom); err != nil {
					return err
				}
				rom = nil
			} else if watching {
				fmt.Fprintln(out, "ready, waiting for a ROM")
			}
		case protocol.Name:
			fmt.Fprintf(out, "playing: %s\n", m.Value())
		case protocol.Exit:
			fmt.Fprintln(out, "session exited")
			if !watching {
				return nil
			}
		}
	}
}

// readCommands turns terminal lines into session commands.
func readCommands(ctx context.Context, host protocol.Conn, in io.Reader, logger log.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		var msg protocol.Message
		switch strings.TrimSpace(scanner.Text()) {
		case "s":
			msg = protocol.NewSaveState()
		case "l":
			msg = protocol.NewLoadState()
		case "q":
			msg = protocol.NewExit()
		case "":
			continue
		default:
			logger.Warn("unknown command, use s, l or q", log.String("input", scanner.Text()))
			continue
		}
		if err := host.Send(ctx, msg); err != nil {
			return
		}
	}
}
