package reply

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"epic-tech-ai/backend/pkg/cache"
	"epic-tech-ai/backend/pkg/logger"
	"epic-tech-ai/backend/pkg/resilience"

	"github.com/stretchr/testify/assert"
)

type fakeCompleter struct {
	mu    sync.Mutex
	out   string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.out, f.err
}

func newTestService(c Completer, store cache.Store) *Service {
	return NewService(Options{
		Completer: c,
		Cache:     store,
		Drawer:    FixedDrawer(0),
		Logger:    logger.Discard(),
	})
}

func TestReplyWithoutCompleterUsesRules(t *testing.T) {
	s := newTestService(nil, nil)

	assert.Equal(t, Reply{Text: GreetReply, Source: SourceRule}, s.Reply(context.Background(), "yo"))
	assert.Equal(t, Reply{Text: FourTwentyReply, Source: SourceRule}, s.Reply(context.Background(), "420"))
}

func TestReplyReturnsTrimmedCompletion(t *testing.T) {
	c := &fakeCompleter{out: "  neon dragons everywhere 🐉  "}
	s := newTestService(c, nil)

	got := s.Reply(context.Background(), "1111")

	assert.Equal(t, Reply{Text: "neon dragons everywhere 🐉", Source: SourceLLM}, got)
	assert.Equal(t, 1, c.calls)
}

func TestReplyFallsBackOnCompletionFailure(t *testing.T) {
	errs := []error{
		ErrNoCredentials,
		resilience.ErrCircuitOpen,
		context.DeadlineExceeded,
		fmt.Errorf("status 502: %w", errors.New("bad gateway")),
	}

	for _, e := range errs {
		t.Run(e.Error(), func(t *testing.T) {
			s := newTestService(&fakeCompleter{err: e}, nil)
			got := s.Reply(context.Background(), "light up")
			assert.Equal(t, Reply{Text: IgnitionReply, Source: SourceRule}, got)
		})
	}
}

func TestReplyFallsBackOnEmptyCompletion(t *testing.T) {
	s := newTestService(&fakeCompleter{out: "   "}, nil)

	got := s.Reply(context.Background(), "qqq")

	assert.Equal(t, SourcePool, got.Source)
	assert.Equal(t, GenericPool()[0], got.Text)
}

func TestReplyUsesCacheOnRepeat(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute, 10, 0)
	defer store.Close()
	c := &fakeCompleter{out: "first"}
	s := newTestService(c, store)

	first := s.Reply(context.Background(), "Sup")
	second := s.Reply(context.Background(), "  sup ")

	assert.Equal(t, SourceLLM, first.Source)
	assert.Equal(t, Reply{Text: "first", Source: SourceCache}, second)
	assert.Equal(t, 1, c.calls)
}

func TestReplyWithoutCredentialsIsAlwaysCanned(t *testing.T) {
	s := NewService(Options{
		Completer: &fakeCompleter{err: ErrNoCredentials},
		Drawer:    NewDrawer(3),
		Logger:    logger.Discard(),
	})

	allowed := append(GenericPool(),
		PortalReply, IgnitionReply, PuffReply, FourTwentyReply, GreetReply, StatusReply)
	inputs := []string{"a", "weird", "ZZZ", "light up", "11111", "puff", "random words", "🌿"}

	for _, in := range inputs {
		got := s.Reply(context.Background(), in)
		assert.NotEmpty(t, got.Text)
		assert.Contains(t, allowed, got.Text, "input %q", in)
	}
}

func TestServiceTypingDelayAndGreeting(t *testing.T) {
	s := NewService(Options{Drawer: FixedDrawer(0.5), Logger: logger.Discard()})

	assert.Equal(t, 1050*time.Millisecond, s.TypingDelay())
	assert.Equal(t, GreetingText, s.Greeting())
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "no_credentials", failureReason(fmt.Errorf("wrap: %w", ErrNoCredentials)))
	assert.Equal(t, "empty", failureReason(ErrEmptyCompletion))
	assert.Equal(t, "circuit_open", failureReason(resilience.ErrCircuitOpen))
	assert.Equal(t, "timeout", failureReason(context.DeadlineExceeded))
	assert.Equal(t, "canceled", failureReason(context.Canceled))
	assert.Equal(t, "error", failureReason(errors.New("x")))
}
