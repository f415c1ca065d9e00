// Package chat answers follow-up questions about an accessibility audit.
package chat

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/bryanwahyu/reason3/internal/application"
	"github.com/bryanwahyu/reason3/internal/domain/ai"
	"github.com/bryanwahyu/reason3/internal/domain/analysis"
	domain "github.com/bryanwahyu/reason3/internal/domain/chat"
)

// Instruction renders a conversation as the single prompt sent to the model.
type Instruction func(domain.Request) string

// Service sends one model request per question. Like the analysis service
// it never fails: errors become domain.ErrorReply with a non-ok Status.
type Service struct {
	model       ai.Client
	instruction Instruction
	clock       application.Clock
	logger      *zap.Logger
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option      { return func(s *Service) { s.logger = l } }
func WithClock(c application.Clock) Option { return func(s *Service) { s.clock = c } }

func NewService(model ai.Client, instruction Instruction, opts ...Option) *Service {
	s := &Service{model: model, instruction: instruction, clock: application.SystemClock{}, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Reply(ctx context.Context, req domain.Request) domain.Reply {
	start := s.clock.Now()
	log := s.logger.With(zap.Int("turns", len(req.History)))

	if s.model == nil {
		log.Warn("no API credential configured, chat unavailable")
		return domain.Reply{Text: domain.ErrorReply, Status: analysis.StatusDemo}
	}

	reply := domain.Reply{Model: s.model.Name()}
	raw, err := s.model.Complete(ctx, ai.Request{Prompt: s.instruction(req)})
	switch {
	case err != nil:
		log.Error("model call failed",
			zap.Error(err),
			zap.Bool("quota_exceeded", errors.Is(err, ai.ErrQuotaExceeded)),
		)
		reply.Text, reply.Status = domain.ErrorReply, analysis.StatusTransportError
	default:
		text, err := domain.DecodeReply(raw)
		if err != nil {
			log.Error("model reply rejected", zap.Error(err), zap.String("raw", raw))
			reply.Text, reply.Status = domain.EmptyReply, analysis.StatusShapeError
			break
		}
		reply.Text, reply.Status = text, analysis.StatusOK
	}

	log.Info("chat reply",
		zap.String("status", string(reply.Status)),
		zap.Duration("duration", s.clock.Now().Sub(start)),
	)
	return reply
}
