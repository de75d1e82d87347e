// internal/vca/intelligence/synthesizer.go
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"time"

	vcaerrors "vca-advisor/internal/common/errors"
	"vca-advisor/internal/common/llm"
	"vca-advisor/internal/common/logger"
	"vca-advisor/internal/common/metrics"
	"vca-advisor/internal/tekmetric"
	buildcontext "vca-advisor/internal/vca/build-context"
)

var ErrSynthesisFailed = errors.New("LLM_SYNTHESIS_FAILED")

// Synthesizer turns a repair-order aggregate into an AdvisoryDocument. Model
// failures never reach the caller; they yield FallbackDocument.
type Synthesizer struct {
	config *Config
	client llm.Client
	logger logger.Logger
}

func NewSynthesizer(config *Config, client llm.Client, log logger.Logger) *Synthesizer {
	if config == nil {
		config = LoadConfig()
	}
	return &Synthesizer{
		config: config,
		client: client,
		logger: logger.ForComponent(log, "intelligence"),
	}
}

// Synthesize returns a document for agg. The only error is a missing repair
// order.
func (s *Synthesizer) Synthesize(ctx context.Context, agg *buildcontext.Aggregate) (*AdvisoryDocument, error) {
	if agg == nil || agg.RepairOrder == nil {
		return nil, vcaerrors.NewValidationError("missing repairOrder context")
	}

	start := time.Now()
	provider := "none"
	if s.client != nil {
		provider = s.client.Provider()
	}
	defer func() {
		metrics.SynthesisDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	}()

	doc, err := s.execute(ctx, agg)
	if err != nil {
		degraded := vcaerrors.NewSynthesisDegradedError(err)
		s.logger.Warn("Intelligence synthesis failed, using fallback", map[string]interface{}{
			"code":       string(degraded.Code),
			"cause":      err,
			"provider":   provider,
			"durationMs": time.Since(start).Milliseconds(),
		})
		metrics.SynthesisOutcomes.WithLabelValues(metrics.OutcomeFallback).Inc()
		return FallbackDocument(), nil
	}

	metrics.SynthesisOutcomes.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("Intelligence synthesis completed", map[string]interface{}{
		"provider":      provider,
		"opportunities": len(doc.AISuggestedOpportunities),
		"durationMs":    time.Since(start).Milliseconds(),
	})
	return doc, nil
}

// SynthesizeRepairOrder synthesizes from a bare repair order record.
func (s *Synthesizer) SynthesizeRepairOrder(ctx context.Context, ro tekmetric.Record) (*AdvisoryDocument, error) {
	if ro == nil {
		return nil, vcaerrors.NewValidationError("missing repairOrder context")
	}
	return s.Synthesize(ctx, &buildcontext.Aggregate{
		RepairOrder: ro,
		Inspection:  tekmetric.InspectionFromRepairOrder(ro),
	})
}

func (s *Synthesizer) execute(ctx context.Context, agg *buildcontext.Aggregate) (*AdvisoryDocument, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, llm.ErrMissingAPIKey)
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	raw, err := s.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   s.buildPrompt(agg),
		Temperature:  s.config.Temperature,
		MaxTokens:    s.config.MaxTokens,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	doc, err := parseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	return doc, nil
}
