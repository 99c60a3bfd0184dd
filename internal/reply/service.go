package reply

import (
	"context"
	"errors"
	"strings"
	"time"

	"epic-tech-ai/backend/pkg/cache"
	"epic-tech-ai/backend/pkg/logger"
	"epic-tech-ai/backend/pkg/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Errors a Completer reports when it cannot produce text. Any other error is
// treated as a transport failure.
var (
	ErrNoCredentials   = errors.New("no completion credentials configured")
	ErrEmptyCompletion = errors.New("completion returned no content")
)

// Completer produces a persona completion for the user's text
type Completer interface {
	Complete(ctx context.Context, userText string) (string, error)
}

// Options configures a Service. Only Logger is required; a nil Completer
// means every reply comes from the fallback rules.
type Options struct {
	Completer Completer
	Cache     cache.Store
	Drawer    Drawer
	Logger    *logger.Logger
	DelayMin  time.Duration
	DelayMax  time.Duration
}

// Service picks replies for user messages
type Service struct {
	completer Completer
	cache     cache.Store
	drawer    Drawer
	log       *logger.Logger
	delayMin  time.Duration
	delayMax  time.Duration
	metrics   *metrics
	tracer    trace.Tracer
}

// NewService creates a reply service
func NewService(opts Options) *Service {
	if opts.Drawer == nil {
		opts.Drawer = NewDrawer(0)
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetGlobal()
	}
	if opts.DelayMin == 0 && opts.DelayMax == 0 {
		opts.DelayMin, opts.DelayMax = DefaultDelayMin, DefaultDelayMax
	}
	return &Service{
		completer: opts.Completer,
		cache:     opts.Cache,
		drawer:    opts.Drawer,
		log:       opts.Logger,
		delayMin:  opts.DelayMin,
		delayMax:  opts.DelayMax,
		metrics:   newMetrics(),
		tracer:    otel.Tracer(instrumentationName),
	}
}

// Greeting returns the text sent unprompted on connect
func (s *Service) Greeting() string {
	return GreetingText
}

// TypingDelay draws the artificial latency applied before a reply is emitted
func (s *Service) TypingDelay() time.Duration {
	return TypingDelay(s.drawer.Float64(), s.delayMin, s.delayMax)
}

// Reply returns a non-empty answer for text. It never fails: completion
// errors are logged and demote to the fallback rules.
func (s *Service) Reply(ctx context.Context, text string) Reply {
	ctx, span := s.tracer.Start(ctx, "reply.Reply")
	defer span.End()

	r, ok := s.fromCompletion(ctx, text)
	if !ok {
		r = Fallback(text, s.drawer.Float64())
	}

	span.SetAttributes(attribute.String("reply.source", string(r.Source)))
	s.metrics.recordReply(ctx, r.Source)
	return r
}

func (s *Service) fromCompletion(ctx context.Context, text string) (Reply, bool) {
	if s.completer == nil {
		return Reply{}, false
	}

	key := cache.Key(Normalize(text))
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err == nil && cached != "" {
			return Reply{Text: cached, Source: SourceCache}, true
		}
		if err != nil && !errors.Is(err, cache.ErrMiss) {
			s.log.WithContext(ctx).Warn("Completion cache lookup failed", "error", err.Error())
		}
	}

	started := time.Now()
	out, err := s.completer.Complete(ctx, text)
	if err == nil {
		out = strings.TrimSpace(out)
		if out == "" {
			err = ErrEmptyCompletion
		}
	}
	s.metrics.recordCompletion(ctx, started, err == nil)

	if err != nil {
		reason := failureReason(err)
		s.metrics.recordFailure(ctx, reason)
		if reason == "no_credentials" {
			s.log.WithContext(ctx).Debug("Completion skipped", "reason", reason)
		} else {
			s.log.WithContext(ctx).Warn("Completion failed, using fallback reply",
				"reason", reason,
				"error", err.Error(),
			)
		}
		return Reply{}, false
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out); err != nil {
			s.log.WithContext(ctx).Warn("Completion cache store failed", "error", err.Error())
		}
	}

	return Reply{Text: out, Source: SourceLLM}, true
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoCredentials):
		return "no_credentials"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
