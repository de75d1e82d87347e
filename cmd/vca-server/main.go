package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vca-advisor/internal/app"
	"vca-advisor/internal/common/config"
	"vca-advisor/internal/common/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	port       int
)

var rootCmd = &cobra.Command{
	Use:   "vca-server",
	Short: "Vehicle Context Advisor sidebar server",
	Long: `vca-server serves the Vehicle Context Advisor sidebar.

It fetches a repair order with its vehicle and customer from Tekmetric,
synthesizes advisor and customer notes with a language model, and renders
them as an HTML sidebar and a JSON API.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Load configuration and print the resolved settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		printConfig(cmd, cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: configs/config.yaml)")
	rootCmd.Flags().IntVar(&port, "port", 0, "listen port (overrides PORT and server.port)")
	rootCmd.AddCommand(checkConfigCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	return cfg, nil
}

func runServer(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	zapLog.Info("Starting VCA server...",
		zap.String("environment", cfg.App.Environment),
		zap.Int("port", cfg.Server.Port),
	)

	a, err := app.New(ctx, cfg, zapLog, app.Options{})
	if err != nil {
		zapLog.Error("Initialization failed", zap.Error(err))
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		zapLog.Error("Server failed", zap.Error(err))
		return err
	}
	return nil
}

func printConfig(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	set := func(v string) string {
		if v == "" {
			return "missing"
		}
		return "set"
	}

	fmt.Fprintf(out, "environment:          %s\n", cfg.App.Environment)
	fmt.Fprintf(out, "server.port:          %d\n", cfg.Server.Port)
	fmt.Fprintf(out, "tekmetric.token_url:  %s\n", cfg.Tekmetric.TokenURL)
	fmt.Fprintf(out, "tekmetric.base_url:   %s\n", cfg.Tekmetric.BaseURL)
	fmt.Fprintf(out, "tekmetric.client_id:  %s\n", set(cfg.Tekmetric.ClientID))
	fmt.Fprintf(out, "tekmetric.secret:     %s\n", set(cfg.Tekmetric.ClientSecret))
	fmt.Fprintf(out, "tekmetric.expand_jobs: %t\n", cfg.Tekmetric.ExpandJobs)
	fmt.Fprintf(out, "token_cache.enabled:  %t\n", cfg.TokenCache.Enabled)
	fmt.Fprintf(out, "llm.provider:         %s\n", cfg.LLM.Provider)
	fmt.Fprintf(out, "llm.model:            %s\n", cfg.LLM.Model)
	fmt.Fprintf(out, "llm.temperature:      %g\n", cfg.LLM.Temperature)
	fmt.Fprintf(out, "llm.api_key:          %s\n", set(cfg.LLM.APIKey))
	fmt.Fprintf(out, "llm.related_records:  %t\n", cfg.LLM.IncludeRelatedRecords)
	fmt.Fprintf(out, "logging:              %s/%s\n", cfg.Logging.Level, cfg.Logging.Format)
}
