package romwatcher

import "github.com/bft-labs/gonesbridge/pkg/gonesbridge"

// WithROMWatcher returns a gonesbridge Option that plays ROMs dropped into
// cfg.Dir.
//
// Usage:
//
//	b, err := gonesbridge.New(cfg,
//	    romwatcher.WithROMWatcher(romwatcher.Config{
//	        Dir:           "/path/to/roms",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithROMWatcher(cfg Config) gonesbridge.Option {
	return gonesbridge.WithPlugin(New(cfg))
}
