package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/trickstertwo/xtrack"
	"github.com/trickstertwo/xtrack/internal/traffic"
	"github.com/trickstertwo/xtrack/metrics"
)

var (
	trafficCount       int
	trafficSeed        int64
	trafficSiteURL     string
	trafficPause       time.Duration
	trafficMetricsAddr string
)

var trafficCmd = &cobra.Command{
	Use:   "traffic",
	Short: "Drive synthetic shopper journeys through the pipeline",
	Long: `Generate fake shoppers who land with click identifiers and walk the
ViewContent, AddToCart, Purchase funnel. Every journey is its own session.

Flags override the traffic section of the config file.

Examples:
  xtrack traffic --count 100 --seed 7
  xtrack traffic --count 1000 --pause 200ms --metrics-addr :9100`,
	RunE: runTraffic,
}

func init() {
	rootCmd.AddCommand(trafficCmd)

	f := trafficCmd.Flags()
	f.IntVar(&trafficCount, "count", 0, "number of journeys (default from config)")
	f.Int64Var(&trafficSeed, "seed", 0, "random seed; 0 uses the current time")
	f.StringVar(&trafficSiteURL, "site", "", "storefront base URL")
	f.DurationVar(&trafficPause, "pause", 0, "pause between journeys")
	f.StringVar(&trafficMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
}

func runTraffic(cmd *cobra.Command, args []string) error {
	tc := cfg.Traffic
	if cmd.Flags().Changed("count") {
		tc.Count = trafficCount
	}
	if cmd.Flags().Changed("seed") {
		tc.Seed = trafficSeed
	}
	if trafficSiteURL != "" {
		tc.SiteURL = trafficSiteURL
	}
	if cmd.Flags().Changed("pause") {
		tc.Pause = trafficPause
	}
	metricsAddr := cfg.Metrics.Addr
	if trafficMetricsAddr != "" {
		metricsAddr = trafficMetricsAddr
	}
	if tc.Seed == 0 {
		tc.Seed = time.Now().UnixNano()
	}

	logger := newLogger()
	w, err := newWiring(cfg, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	reg := prometheus.NewRegistry()
	obs := metrics.NewObserver(reg)

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", metricsAddr).Msg("metrics server failed")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		logger.Info().Str("addr", metricsAddr).Msg("serving metrics")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := traffic.NewRunner(
		traffic.NewGenerator(tc.Seed, tc.SiteURL),
		func(j traffic.Journey) (*xtrack.Dispatcher, error) {
			return w.dispatcher(session{LandingURL: j.LandingURL, UserAgent: j.Shopper.UserAgent}, obs)
		},
		tc.Pause,
		logger,
	)

	sum, err := runner.Run(ctx, tc.Count)
	printSummary(cmd, sum, tc.Seed)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printSummary(cmd *cobra.Command, sum traffic.Summary, seed int64) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nSummary (seed %d):\n", seed)
	fmt.Fprintf(out, "  Journeys: %d\n", sum.Journeys)

	names := make([]string, 0, len(sum.Events))
	for n := range sum.Events {
		names = append(names, string(n))
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(out, "  %-12s %d\n", n+":", sum.Events[xtrack.EventName(n)])
	}
	fmt.Fprintf(out, "  Elapsed: %s\n", sum.Elapsed.Round(time.Millisecond))
}
