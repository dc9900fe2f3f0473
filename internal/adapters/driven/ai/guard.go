package ai

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
	"github.com/custodia-labs/chunkwise/internal/core/ports/driven"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Per-call deadlines applied to every provider call.
const (
	EmbeddingTimeout  = 30 * time.Second
	GenerationTimeout = 120 * time.Second
)

// guardedEmbedding applies rate limiting and a per-call deadline.
type guardedEmbedding struct {
	driven.EmbeddingService
	provider domain.AIProvider
	limiter  *RateLimiter
	timeout  time.Duration
}

// GuardEmbedding wraps svc with the provider rate limiter and EmbeddingTimeout.
func GuardEmbedding(svc driven.EmbeddingService, provider domain.AIProvider, limiter *RateLimiter) driven.EmbeddingService {
	if svc == nil {
		return nil
	}
	return &guardedEmbedding{EmbeddingService: svc, provider: provider, limiter: limiter, timeout: EmbeddingTimeout}
}

func (g *guardedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, guardError(g.provider, "embed", err)
	}
	v, err := g.EmbeddingService.Embed(ctx, text)
	return v, g.observe("embed", err)
}

func (g *guardedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, guardError(g.provider, "embed", err)
	}
	v, err := g.EmbeddingService.EmbedBatch(ctx, texts)
	return v, g.observe("embed", err)
}

func (g *guardedEmbedding) observe(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrRateLimited) {
		logger.Warn("%s %s rate limited, backing off", g.provider, op)
		g.limiter.RecordRateLimitError(0)
	}
	return guardError(g.provider, op, err)
}

// guardedLLM applies rate limiting and a deadline. Streams keep the deadline
// for their whole lifetime and release it on Close.
type guardedLLM struct {
	driven.LLMService
	provider domain.AIProvider
	limiter  *RateLimiter
	timeout  time.Duration
}

// GuardLLM wraps svc with the provider rate limiter and GenerationTimeout.
func GuardLLM(svc driven.LLMService, provider domain.AIProvider, limiter *RateLimiter) driven.LLMService {
	if svc == nil {
		return nil
	}
	return &guardedLLM{LLMService: svc, provider: provider, limiter: limiter, timeout: GenerationTimeout}
}

func (g *guardedLLM) Complete(ctx context.Context, messages []domain.Turn, opts driven.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.limiter.Wait(ctx); err != nil {
		return "", guardError(g.provider, "complete", err)
	}
	out, err := g.LLMService.Complete(ctx, messages, opts)
	return out, g.observe("complete", err)
}

func (g *guardedLLM) Stream(ctx context.Context, messages []domain.Turn, opts driven.GenerateOptions) (driven.CompletionStream, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	if err := g.limiter.Wait(ctx); err != nil {
		cancel()
		return nil, guardError(g.provider, "stream", err)
	}
	st, err := g.LLMService.Stream(ctx, messages, opts)
	if err != nil {
		cancel()
		return nil, g.observe("stream", err)
	}
	return &guardedStream{CompletionStream: st, cancel: cancel, guard: g}, nil
}

func (g *guardedLLM) observe(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrRateLimited) {
		logger.Warn("%s %s rate limited, backing off", g.provider, op)
		g.limiter.RecordRateLimitError(0)
	}
	return guardError(g.provider, op, err)
}

type guardedStream struct {
	driven.CompletionStream
	cancel context.CancelFunc
	guard  *guardedLLM
}

func (s *guardedStream) Err() error {
	return s.guard.observe("stream", s.CompletionStream.Err())
}

func (s *guardedStream) Close() error {
	defer s.cancel()
	return s.CompletionStream.Close()
}

// guardError makes sure err is a ProviderError so deadline and context
// failures classify as ErrProviderTimeout.
func guardError(provider domain.AIProvider, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return domain.NewProviderError(provider.String(), op, err)
}
