// Command web runs the Legatum artist resolution server. "web serve" (the
// default) starts the HTTP server; "web resolve <query>" resolves a single
// query and prints the JSON result.
//
// Settings come from flags, LEGATUM_* environment variables and an optional
// .env file, in that order of precedence.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/vsoeiu/LegatumM/pkg/config"
	"github.com/vsoeiu/LegatumM/pkg/handlers"
	"github.com/vsoeiu/LegatumM/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "web",
		Short:         "Legatum multi-source artist resolution server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := gotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "config", ".env", "env file to load")
	registerFlags(root, v)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}
	resolve := &cobra.Command{
		Use:   "resolve <query...>",
		Short: "Resolve one query and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), v, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
	root.AddCommand(serve, resolve)
	root.RunE = serve.RunE
	return root
}

// registerFlags declares one persistent flag per configuration key and binds
// them to v.
func registerFlags(cmd *cobra.Command, v *viper.Viper) {
	defaults := config.Defaults()
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flags := cmd.PersistentFlags()
	for _, k := range keys {
		usage := "LEGATUM_" + strings.ToUpper(strings.ReplaceAll(k, "-", "_"))
		switch d := defaults[k].(type) {
		case string:
			flags.String(k, d, usage)
		case int:
			flags.Int(k, d, usage)
		case bool:
			flags.Bool(k, d, usage)
		case time.Duration:
			flags.Duration(k, d, usage)
		}
	}
	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("binding flags: %v", err))
	}
}

func loadConfig(v *viper.Viper) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	logger := cfg.NewLogger()
	for _, key := range cfg.MissingCredentials() {
		logger.WithField("key", key).Warn("credential not configured, source disabled")
	}
	return cfg, logger, nil
}

func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, logger, err := loadConfig(v)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, err := buildEngine(cfg, nil, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	throttle, err := handlers.NewThrottle(cfg.Throttle.Requests, cfg.Throttle.Window)
	if err != nil {
		return err
	}
	app := &handlers.Application{
		Resolver:    eng.resolver,
		Suggester:   eng.spotify,
		Browser:     eng.browser,
		OfflineMode: cfg.OfflineMode,
		Logger:      logger.WithField("component", "http"),
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Routes(throttle, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("starting Legatum")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func runResolve(ctx context.Context, v *viper.Viper, query string, out io.Writer) error {
	cfg, logger, err := loadConfig(v)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger.SetOutput(os.Stderr)

	eng, err := buildEngine(cfg, nil, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	res, err := eng.resolver.Resolve(ctx, query)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
