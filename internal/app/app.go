// Package app wires configuration into a runnable VCA server.
package app

import (
	"context"
	"fmt"
	"time"

	"vca-advisor/internal/common/auth"
	"vca-advisor/internal/common/cache"
	"vca-advisor/internal/common/config"
	httpclient "vca-advisor/internal/common/http"
	"vca-advisor/internal/common/llm"
	"vca-advisor/internal/common/logger"
	"vca-advisor/internal/common/observability"
	"vca-advisor/internal/server"
	"vca-advisor/internal/tekmetric"
	buildcontext "vca-advisor/internal/vca/build-context"
	"vca-advisor/internal/vca/intelligence"
	"vca-advisor/internal/vca/sidebar"

	"go.uber.org/zap"
)

type Options struct {
	// Observability overrides the Prometheus-backed meter, mainly for tests
	// that build more than one App per process.
	Observability *observability.Observability
}

type App struct {
	Server *server.Server

	obs    *observability.Observability
	redis  *cache.RedisClient
	zapLog *zap.Logger
}

// New builds every component from cfg. Missing Tekmetric or model secrets do
// not fail here; they surface per request.
func New(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, opts Options) (*App, error) {
	log := logger.NewZapAdapter(zapLog)

	obs := opts.Observability
	if obs == nil {
		obs = observability.New(cfg.App.Name)
	}

	a := &App{obs: obs, zapLog: zapLog}

	var tokenCache auth.TokenCache
	if cfg.TokenCache.Enabled {
		rc, err := cache.NewRedis(cfg.TokenCache.Redis)
		if err != nil {
			return nil, fmt.Errorf("token cache: %w", err)
		}
		err = retryWithBackoff(ctx, func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			return rc.Ping(pingCtx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			_ = rc.Close()
			return nil, err
		}
		zapLog.Info("Redis token cache connected", zap.String("address", cfg.TokenCache.Redis.Address))
		a.redis = rc
		tokenCache = cache.NewTokenStore(rc.Client, cfg.TokenCache.KeyPrefix)
	}

	tmHTTP := httpclient.NewClient(config.GetDuration(cfg.Tekmetric.Timeout))
	tokens := auth.NewTekmetricTokenProvider(cfg.Tekmetric, cfg.TokenCache, tmHTTP, tokenCache, log)
	tm := tekmetric.NewClient(cfg.Tekmetric.BaseURL, tokens, tmHTTP, log)

	builder := buildcontext.NewBuilder(&buildcontext.Config{
		ExpandJobs: cfg.Tekmetric.ExpandJobs,
	}, tm, log)

	// The synthesis deadline is enforced through the request context.
	llmClient, err := llm.New(ctx, cfg.LLM, httpclient.NewClient(0))
	if err != nil {
		a.Close()
		return nil, err
	}
	synthesizer := intelligence.NewSynthesizer(&intelligence.Config{
		Timeout:     config.GetDuration(cfg.LLM.Timeout),
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,

		IncludeRelatedRecords: cfg.LLM.IncludeRelatedRecords,
	}, llmClient, log)

	renderer, err := sidebar.NewRenderer()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Server = server.New(server.Config{
		Port:            cfg.Server.Port,
		ReadTimeout:     config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:    config.GetDuration(cfg.Server.WriteTimeout),
		ShutdownTimeout: config.GetDuration(cfg.Server.ShutdownTimeout),
	}, builder, synthesizer, renderer, obs, log)

	if a.redis != nil {
		a.Server.AddReadinessCheck("redis", a.redis.Ping)
	}

	zapLog.Info("VCA components initialized",
		zap.String("llmProvider", llmClient.Provider()),
		zap.String("llmModel", cfg.LLM.Model),
		zap.Bool("tokenCache", cfg.TokenCache.Enabled),
		zap.Bool("expandJobs", cfg.Tekmetric.ExpandJobs),
		zap.Bool("llmRelatedRecords", cfg.LLM.IncludeRelatedRecords),
		zap.Bool("tekmetricBaseURLSet", cfg.Tekmetric.BaseURL != ""),
		zap.Bool("tekmetricCredentialsSet", cfg.Tekmetric.ClientID != "" && cfg.Tekmetric.ClientSecret != ""),
		zap.Bool("llmAPIKeySet", cfg.LLM.APIKey != ""),
	)

	return a, nil
}

// Run serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.Server.Run(ctx)
}

// Close releases the Redis pool and the meter provider.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.zapLog.Error("Error closing Redis client", zap.Error(err))
		}
	}
	a.obs.Shutdown()
}

// retryWithBackoff attempts to execute a function with exponential backoff.
// Cancelling ctx stops the wait between attempts.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s aborted after %d attempts: %w", operationName, i+1, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
