package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/studiowebux/apiprobe/internal/breakingpoint"
	"github.com/studiowebux/apiprobe/internal/client"
	"github.com/studiowebux/apiprobe/internal/config"
	"github.com/studiowebux/apiprobe/internal/mock"
	"github.com/studiowebux/apiprobe/internal/testdata"
	"github.com/studiowebux/apiprobe/internal/version"
)

var (
	flagEnvironment   string
	flagEndpointsFile string
	flagVerbose       bool

	flagProbeDuration    int
	flagSuccessThreshold float64
	flagP95Ceiling       float64

	flagRate int

	flagMockAddr      string
	flagMockLatencyMS int
	flagMockFailEvery int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "apiprobe",
	Short: "API breaking-point and load analysis tool",
	Long: `apiprobe finds the maximum sustainable request rate for a set of
API endpoints by binary-searching the rate axis with fixed-duration
load probes.

Examples:
  apiprobe analyze                       # Full analysis, development environment
  apiprobe analyze -e staging            # Staging environment presets
  apiprobe analyze --endpoints eps.jsonc # Custom endpoint search configs
  apiprobe probe posts --rate 50         # One probe: posts at 50 RPS
  apiprobe mock --addr localhost:8080    # Local mock API to probe against`,
	Version:       version.Current,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env file; absence is fine.
		_ = godotenv.Load()

		logrus.SetOutput(os.Stderr)
		if flagVerbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full multi-endpoint breaking-point analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, endpoints, err := loadConfiguration()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		prober := newProber(env)
		finder := breakingpoint.NewFinder(prober, searchOptions(env))
		analyzer := breakingpoint.NewAnalyzer(finder, prober.Healthy, endpoints)

		report, err := analyzer.Run(ctx)
		if err != nil {
			return err
		}

		printAnalysisSummary(report)
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <endpoint>",
	Short: "Run a single fixed-rate probe against one endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, _, err := loadConfiguration()
		if err != nil {
			return err
		}
		if flagRate <= 0 {
			return fmt.Errorf("rate must be greater than 0")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		prober := newProber(env)
		summary, err := prober.Probe(ctx, args[0], flagRate, probeDuration(env))
		if err != nil {
			return err
		}

		encoded, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	},
}

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve a local JSONPlaceholder-shaped API for offline test runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mock.NewServer(mock.Options{
			Addr:      flagMockAddr,
			Latency:   time.Duration(flagMockLatencyMS) * time.Millisecond,
			FailEvery: flagMockFailEvery,
		})
		if err := server.Start(); err != nil {
			return err
		}

		fmt.Printf("Mock API listening on %s (set JSONPLACEHOLDER_BASE_URL to probe it)\n", server.URL())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		return server.Stop()
	},
}

var updateCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Check whether a newer release is available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		available, latest, url, err := version.CheckForUpdate(cmd.Context())
		if err != nil {
			return err
		}
		if available {
			fmt.Printf("New version %s available: %s\n", latest, url)
		} else {
			fmt.Printf("Already on the latest version (%s)\n", version.Current)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagEnvironment, "environment", "e", "development", "environment preset (development, staging, production)")
	rootCmd.PersistentFlags().StringVar(&flagEndpointsFile, "endpoints", "", "endpoint search-config file (JSONC)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.PersistentFlags().IntVar(&flagProbeDuration, "probe-duration", 0, "seconds per probe (default from environment)")
	rootCmd.PersistentFlags().Float64Var(&flagSuccessThreshold, "success-threshold", breakingpoint.DefaultSuccessThreshold, "minimum success rate percent for a probe to pass")
	rootCmd.PersistentFlags().Float64Var(&flagP95Ceiling, "p95-ceiling", breakingpoint.DefaultP95Ceiling, "maximum p95 latency in seconds for a probe to pass")

	probeCmd.Flags().IntVar(&flagRate, "rate", 0, "requests per second (required)")

	mockCmd.Flags().StringVar(&flagMockAddr, "addr", "localhost:8080", "listen address")
	mockCmd.Flags().IntVar(&flagMockLatencyMS, "latency", 0, "injected latency per response in milliseconds")
	mockCmd.Flags().IntVar(&flagMockFailEvery, "fail-every", 0, "fail every Nth request with 503 (0 disables)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(updateCmd)
}

func loadConfiguration() (*config.Environment, map[string]config.EndpointConfig, error) {
	env, err := config.Load(flagEnvironment)
	if err != nil {
		return nil, nil, err
	}

	endpoints := config.DefaultEndpoints()
	if flagEndpointsFile != "" {
		endpoints, err = config.LoadEndpointsFile(flagEndpointsFile)
		if err != nil {
			return nil, nil, err
		}
	}

	return env, endpoints, nil
}

func newProber(env *config.Environment) *breakingpoint.EndpointProber {
	retryPolicy := client.DefaultRetryPolicy()
	retryPolicy.MaxAttempts = uint(env.MaxRetries)
	retryPolicy.InitialDelay = env.RetryDelay()

	apiClient := client.NewJSONPlaceholder(env.JSONPlaceholderBaseURL, client.Options{
		Timeout: env.RequestTimeout(),
		Retry:   retryPolicy,
	})

	return breakingpoint.NewEndpointProber(apiClient, testdata.New())
}

func searchOptions(env *config.Environment) breakingpoint.Options {
	return breakingpoint.Options{
		SuccessThreshold: flagSuccessThreshold,
		P95Ceiling:       flagP95Ceiling,
		ProbeDuration:    probeDuration(env),
	}
}

func probeDuration(env *config.Environment) time.Duration {
	if flagProbeDuration > 0 {
		return time.Duration(flagProbeDuration) * time.Second
	}
	return env.ProbeDuration()
}

// printAnalysisSummary writes the compact per-endpoint result table.
func printAnalysisSummary(report *breakingpoint.AnalysisReport) {
	endpoints := make([]string, 0, len(report.Results))
	for endpoint := range report.Results {
		endpoints = append(endpoints, endpoint)
	}
	sort.Strings(endpoints)

	fmt.Println("Breaking Point Analysis")
	fmt.Println("-----------------------")
	for _, endpoint := range endpoints {
		result := report.Results[endpoint]
		status := "FAIL"
		if result.TargetMet {
			status = "PASS"
		}
		fmt.Printf("%-15s | %4d RPS | target %4d RPS | margin %+.1f%% | %s\n",
			endpoint, result.BreakingPointRPS, result.TargetRPS, result.SafetyMarginPercent, status)
	}
	for endpoint, message := range report.Errors {
		fmt.Printf("%-15s | error: %s\n", endpoint, message)
	}
}
