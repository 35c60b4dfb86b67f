package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tapolio/tapolio-server/config"
	"github.com/tapolio/tapolio-server/internal/metrics"
)

// Call purposes, used for metrics and logs.
const (
	PurposeDetect   = "detect"
	PurposeAnswer   = "answer"
	PurposeQuestion = "question"
	PurposeEvaluate = "evaluate"
	PurposeHint     = "hint"
)

// CompletionRequest is a single-turn prompt with its sampling limits.
type CompletionRequest struct {
	Purpose     string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// LLMService sends one prompt to the language model and returns the trimmed reply.
// An empty reply is not an error; callers decide their own fallback.
type LLMService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// NewLLMService builds the configured provider wrapped with metrics and logging.
func NewLLMService(cfg *config.Config, m *metrics.Metrics) (LLMService, error) {
	var (
		inner LLMService
		err   error
	)
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		inner, err = NewGeminiLLMService(cfg.LLM.GeminiApiKey, cfg.LLMModel())
	case config.ProviderOpenAI:
		inner = NewOpenAILLMService(cfg.LLM.OpenAIApiKey, cfg.LLMModel())
	default:
		err = fmt.Errorf("unsupported LLM provider %q", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", cfg.LLM.Provider).Str("model", cfg.LLMModel()).Msg("Language model configured")
	return NewInstrumentedLLMService(inner, m), nil
}

type instrumentedLLMService struct {
	next    LLMService
	metrics *metrics.Metrics
}

func NewInstrumentedLLMService(next LLMService, m *metrics.Metrics) LLMService {
	return &instrumentedLLMService{next: next, metrics: m}
}

func (s *instrumentedLLMService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	start := time.Now()
	out, err := s.next.Complete(ctx, req)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case out == "":
		outcome = "empty"
	}
	if s.metrics != nil {
		s.metrics.LLMRequests.WithLabelValues(req.Purpose, outcome).Inc()
	}

	evt := log.Debug()
	if err != nil {
		evt = log.Error().Err(err)
	}
	evt.Str("purpose", req.Purpose).
		Str("outcome", outcome).
		Dur("latency", time.Since(start)).
		Int("reply_len", len(out)).
		Msg("Language model call")
	return out, err
}

// Close releases the wrapped provider client when it holds one.
func (s *instrumentedLLMService) Close() error {
	if c, ok := s.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
