package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	loggerpkg "github.com/minhyannv/chatgpt-repl/pkg/logger"
	"github.com/minhyannv/chatgpt-repl/pkg/stream"
)

// Streamer opens one streaming completion for the given history.
type Streamer interface {
	Stream(ctx context.Context, messages []Message) (*http.Response, error)
}

// Session owns the conversation history for one REPL run.
type Session struct {
	id           string
	streamer     Streamer
	systemPrompt string
	history      []Message
	timeout      time.Duration
	logger       loggerpkg.Logger
}

// NewSession seeds the history with systemPrompt. A positive timeout bounds
// each Send call.
func NewSession(streamer Streamer, systemPrompt string, timeout time.Duration, opts ...Option) *Session {
	d := newDeps(opts)
	s := &Session{
		id:           uuid.NewString(),
		streamer:     streamer,
		systemPrompt: systemPrompt,
		timeout:      timeout,
		logger:       d.logger,
	}
	s.Reset()
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Reset clears conversation history and keeps only the system prompt.
func (s *Session) Reset() {
	s.history = []Message{{Role: RoleSystem, Content: s.systemPrompt}}
}

// Send runs one turn: the user input and the assistant reply are appended
// to the history only when the whole turn succeeds.
func (s *Session) Send(ctx context.Context, input string, sink stream.Sink) (stream.Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return stream.Result{}, errors.New("user input is required")
	}
	if s.streamer == nil {
		return stream.Result{}, errors.New("session has no streamer")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	previousLen := len(s.history)
	s.history = append(s.history, Message{Role: RoleUser, Content: input})
	s.logger.Debug("turn start", map[string]any{
		"session_id": s.id,
		"history":    len(s.history),
	})

	result, err := s.run(ctx, sink)
	if err != nil {
		s.history = s.history[:previousLen]
		return result, err
	}

	s.history = append(s.history, Message{Role: RoleAssistant, Content: result.Text})
	s.logger.Debug("turn complete", map[string]any{
		"session_id":    s.id,
		"fragments":     result.Fragments,
		"skipped":       result.Skipped,
		"finish_reason": result.FinishReason,
	})
	return result, nil
}

func (s *Session) run(ctx context.Context, sink stream.Sink) (stream.Result, error) {
	res, err := s.streamer.Stream(ctx, s.History())
	if err != nil {
		return stream.Result{}, err
	}
	result, err := stream.Decode(ctx, res, sink, s.logger)
	if err != nil {
		return result, err
	}
	if result.Text == "" {
		return result, errors.New("empty assistant response")
	}
	return result, nil
}
