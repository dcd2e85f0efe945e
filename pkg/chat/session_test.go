package chat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type fakeStreamer struct {
	bodies []string
	err    error
	seen   [][]Message
	ctx    context.Context
}

func (f *fakeStreamer) Stream(ctx context.Context, messages []Message) (*http.Response, error) {
	f.ctx = ctx
	f.seen = append(f.seen, messages)
	if f.err != nil {
		return nil, f.err
	}
	body := f.bodies[0]
	f.bodies = f.bodies[1:]
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func sse(fragments ...string) string {
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(`data: {"choices":[{"delta":{"content":"` + f + `"}}]}` + "\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func TestNewSessionSeedsSystemMessage(t *testing.T) {
	s := NewSession(&fakeStreamer{}, "be brief", 0)
	history := s.History()
	if len(history) != 1 || history[0].Role != RoleSystem || history[0].Content != "be brief" {
		t.Fatalf("unexpected seed history %#v", history)
	}
	if s.ID() == "" {
		t.Fatal("expected session id")
	}
}

func TestSessionSendAppendsTwoEntries(t *testing.T) {
	fake := &fakeStreamer{bodies: []string{sse("Hi", " there"), sse("Sure")}}
	s := NewSession(fake, "sys", 0)

	var got []string
	result, err := s.Send(context.Background(), "  hello  ", func(f string) { got = append(got, f) })
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if result.Text != "Hi there" || strings.Join(got, "|") != "Hi| there" {
		t.Fatalf("unexpected result %q / fragments %#v", result.Text, got)
	}

	if _, err := s.Send(context.Background(), "again", nil); err != nil {
		t.Fatalf("second Send: %v", err)
	}

	want := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "Hi there"},
		{Role: RoleUser, Content: "again"},
		{Role: RoleAssistant, Content: "Sure"},
	}
	history := s.History()
	if len(history) != len(want) {
		t.Fatalf("expected %d entries, got %#v", len(want), history)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Fatalf("entry %d: expected %#v, got %#v", i, want[i], history[i])
		}
	}

	if len(fake.seen[1]) != 4 {
		t.Fatalf("second request should carry the full history, got %d messages", len(fake.seen[1]))
	}
}

func TestSessionSendRollsBackOnError(t *testing.T) {
	fake := &fakeStreamer{err: errors.New("dial tcp: connection refused")}
	s := NewSession(fake, "sys", 0)

	if _, err := s.Send(context.Background(), "hello", nil); err == nil {
		t.Fatal("expected error")
	}
	if len(s.History()) != 1 {
		t.Fatalf("expected history rollback, got %#v", s.History())
	}
}

func TestSessionSendRejectsEmptyReply(t *testing.T) {
	fake := &fakeStreamer{bodies: []string{sse()}}
	s := NewSession(fake, "sys", 0)

	if _, err := s.Send(context.Background(), "hello", nil); err == nil {
		t.Fatal("expected error for empty reply")
	}
	if len(s.History()) != 1 {
		t.Fatalf("expected history rollback, got %#v", s.History())
	}
}

func TestSessionSendRejectsBlankInput(t *testing.T) {
	fake := &fakeStreamer{}
	s := NewSession(fake, "sys", 0)
	if _, err := s.Send(context.Background(), "   ", nil); err == nil {
		t.Fatal("expected error for blank input")
	}
	if len(fake.seen) != 0 {
		t.Fatal("blank input must not reach the streamer")
	}
}

func TestSessionAppliesTimeout(t *testing.T) {
	fake := &fakeStreamer{bodies: []string{sse("ok")}}
	s := NewSession(fake, "sys", time.Minute)

	if _, err := s.Send(context.Background(), "hello", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, ok := fake.ctx.Deadline(); !ok {
		t.Fatal("expected request context to carry a deadline")
	}
}

func TestSessionHistoryIsCopy(t *testing.T) {
	s := NewSession(&fakeStreamer{}, "sys", 0)
	h := s.History()
	h[0].Content = "mutated"
	if s.History()[0].Content != "sys" {
		t.Fatal("History must not expose internal state")
	}
}

func TestSessionReset(t *testing.T) {
	fake := &fakeStreamer{bodies: []string{sse("ok")}}
	s := NewSession(fake, "sys", 0)
	if _, err := s.Send(context.Background(), "hello", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	s.Reset()
	if len(s.History()) != 1 {
		t.Fatalf("expected only the system message, got %#v", s.History())
	}
}
