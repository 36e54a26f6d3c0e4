package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
	"github.com/capitalize-ai/multilingual-assistant/pkg/logger"
	"github.com/capitalize-ai/multilingual-assistant/pkg/metrics"
	"github.com/capitalize-ai/multilingual-assistant/pkg/tracing"
)

type instrumented struct {
	next   Generator
	logger *logger.Logger
}

// Instrument wraps a generator with tracing, metrics and failure logging.
func Instrument(next Generator, log *logger.Logger) Generator {
	return &instrumented{next: next, logger: log}
}

func (g *instrumented) Name() string {
	return g.next.Name()
}

func (g *instrumented) Generate(ctx context.Context, req *model.GenerationRequest) (string, error) {
	ctx, span := tracing.Tracer("llm").Start(ctx, "llm.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.provider", g.next.Name()),
		attribute.String("llm.mode", string(req.Mode)),
		attribute.Float64("llm.temperature", req.Temperature),
		attribute.Int("llm.prompt_chars", len(req.PromptText)),
	)

	start := time.Now()
	text, err := g.next.Generate(ctx, req)
	duration := time.Since(start)

	status := "success"
	switch {
	case err != nil:
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Error("generation failed",
			zap.String("provider", g.next.Name()),
			zap.String("mode", string(req.Mode)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	case text == FallbackText:
		status = "empty"
		g.logger.Warn("generation returned no candidates",
			zap.String("provider", g.next.Name()),
			zap.String("mode", string(req.Mode)),
		)
	}

	metrics.RecordGeneration(g.next.Name(), string(req.Mode), status, duration.Seconds(), len(req.PromptText))
	return text, err
}
