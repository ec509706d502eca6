package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/gonesbridge/internal/cliconfig"
	"github.com/bft-labs/gonesbridge/pkg/gonesbridge"
	"github.com/bft-labs/gonesbridge/pkg/log"
)

const helpDescription = `
Run a sandboxed NES emulator module and keep its saves in one SQLite file.

Highlights:
  - Save states and battery saves survive restarts, keyed by ROM name.
  - Saves from older installs are imported the first time the database is created.
  - Configure via file, env (GONESBRIDGE_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  gonesbridge play --module gones.js roms/mario.nes
  gonesbridge play --module gones.js --watch ~/roms
  host-app | gonesbridge serve --module gones.js
  gonesbridge db get saves mario.nes.sav -o mario.sav
  gonesbridge migrate --legacy-dir ~/old-saves --force
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli holds the flag-bound configuration shared by all subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
}

// load layers defaults, the config file, GONESBRIDGE_* variables and
// explicitly set flags, in that order of precedence.
func (c *cli) load(cmd *cobra.Command) (cliconfig.Config, log.Logger, error) {
	cfg := c.cfg

	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return cfg, nil, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
			return cfg, nil, err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
		return cfg, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return cfg, nil, fmt.Errorf("create data dir: %w", err)
	}

	logger := cfg.Logger(os.Stderr)
	logger.Debug("configuration",
		log.String("db", cfg.DBPath),
		log.String("module", cfg.ModulePath),
		log.Any("legacy_dirs", cfg.LegacyDirs),
		log.String("legacy_dump", cfg.LegacyDump),
		log.String("watch", cfg.WatchDir),
		log.Duration("surface_poll", cfg.SurfacePollInterval),
		log.Duration("surface_max", cfg.SurfaceMaxInterval),
		log.Duration("shutdown_timeout", cfg.ShutdownTimeout))

	return cfg, logger, nil
}

// bridgeConfig converts the CLI configuration to the library's.
func bridgeConfig(cfg cliconfig.Config) gonesbridge.Config {
	return gonesbridge.Config{
		DBPath:              cfg.DBPath,
		LegacyDirs:          cfg.LegacyDirs,
		LegacyDump:          cfg.LegacyDump,
		ModulePath:          cfg.ModulePath,
		SurfacePollInterval: cfg.SurfacePollInterval,
		SurfaceMaxInterval:  cfg.SurfaceMaxInterval,
		ShutdownTimeout:     cfg.ShutdownTimeout,
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           "gonesbridge",
		Short:         "Host a sandboxed NES emulator module with persistent saves",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Flags
	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgPath, "config", "", "path to config file, TOML or YAML (default: $HOME/.gonesbridge/config.toml)")
	flags.StringVar(&c.cfg.DBPath, "db", c.cfg.DBPath, "SQLite database path (default: $HOME/.gonesbridge/gones.db)")
	flags.StringSliceVar(&c.cfg.LegacyDirs, "legacy-dir", c.cfg.LegacyDirs, "directory of legacy .sav/.state.gz files imported on first open (repeatable)")
	flags.StringVar(&c.cfg.LegacyDump, "legacy-dump", c.cfg.LegacyDump, "JSON dump of legacy key/value pairs imported on first open")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newPlayCmd(c),
		newServeCmd(c),
		newDBCmd(c),
		newMigrateCmd(c),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gonesbridge: %v\n", err)
		os.Exit(1)
	}
}
