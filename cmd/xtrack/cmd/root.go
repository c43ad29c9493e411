package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/trickstertwo/xlog"
	"github.com/trickstertwo/xlog/adapter/zerolog"

	"github.com/trickstertwo/xtrack/internal/config"
)

var version = "0.1.0"

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "xtrack",
	Short: "Conversion event fan-out toolkit",
	Long: `xtrack fans a storefront conversion event out to the Meta, TikTok and
Reddit pixels and relays a copy to the backend under one shared event ID.

Use it to inspect click-ID capture, send single events by hand, or drive
synthetic shopper traffic through the full pipeline.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./xtrack.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every pixel call and relay attempt")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

// newLogger builds the process logger on the zerolog backend.
func newLogger() *xlog.Logger {
	zc := zerolog.Config{
		Console:           cfg.Logging.Console,
		ConsoleTimeFormat: time.RFC3339,
		Writer:            os.Stderr,
	}
	if verbose || cfg.Logging.Level == "debug" {
		zc.MinLevel = xlog.LevelDebug
	}
	return zerolog.Use(zc).With(xlog.Str("app", "xtrack"))
}
