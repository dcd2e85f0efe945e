// Package stream decodes chat-completion event streams into text fragments.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go/packages/ssestream"
	"github.com/tidwall/gjson"

	loggerpkg "github.com/minhyannv/chatgpt-repl/pkg/logger"
)

// DoneSentinel is the record payload that marks the end of the stream.
const DoneSentinel = "[DONE]"

// maxLoggedPayload caps how much of a malformed record ends up in logs.
const maxLoggedPayload = 256

// Sink receives each text fragment as soon as it is decoded.
type Sink func(fragment string)

// Result describes one fully consumed stream.
type Result struct {
	// Text is the concatenation of all fragments, whitespace-trimmed.
	Text         string
	Fragments    int
	Skipped      int
	FinishReason string
}

// UpstreamError is an error object delivered inside the stream.
type UpstreamError struct {
	Type    string
	Code    string
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Type == "" {
		return "upstream error: " + e.Message
	}
	return fmt.Sprintf("upstream error (%s): %s", e.Type, e.Message)
}

// Decode consumes res until end of stream, forwarding fragments to sink and
// returning the accumulated text. Malformed records are logged and skipped.
// The response body is always closed.
func Decode(ctx context.Context, res *http.Response, sink Sink, log loggerpkg.Logger) (Result, error) {
	if res == nil || res.Body == nil {
		return Result{}, errors.New("stream: response has no body")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if sink == nil {
		sink = func(string) {}
	}
	log = loggerpkg.OrNop(log)

	dec := ssestream.NewDecoder(terminated(res))
	defer dec.Close()

	var (
		text   strings.Builder
		result Result
	)
	for dec.Next() {
		if err := ctx.Err(); err != nil {
			result.Text = strings.TrimSpace(text.String())
			return result, err
		}

		data := bytes.TrimSpace(dec.Event().Data)
		if len(data) == 0 || string(data) == DoneSentinel {
			continue
		}

		if !gjson.ValidBytes(data) {
			result.Skipped++
			log.Warn("skipping malformed stream record", map[string]any{
				"payload": truncate(data),
			})
			continue
		}

		record := gjson.ParseBytes(data)
		if !isChunk(record) {
			result.Skipped++
			log.Warn("skipping unexpected stream record", map[string]any{
				"payload": truncate(data),
			})
			continue
		}
		if e := record.Get("error"); e.Exists() && e.Type != gjson.Null {
			result.Text = strings.TrimSpace(text.String())
			return result, &UpstreamError{
				Type:    e.Get("type").String(),
				Code:    e.Get("code").String(),
				Message: e.Get("message").String(),
			}
		}

		choice := record.Get("choices.0")
		if reason := choice.Get("finish_reason").String(); reason != "" {
			result.FinishReason = reason
		}
		fragment := choice.Get("delta.content").String()
		if fragment == "" {
			continue
		}

		text.WriteString(fragment)
		result.Fragments++
		sink(fragment)
	}

	result.Text = strings.TrimSpace(text.String())
	if err := dec.Err(); err != nil {
		return result, fmt.Errorf("read stream: %w", err)
	}
	return result, nil
}

// terminated returns a shallow copy of res whose body ends with a blank line,
// so a final record without a trailing separator is still dispatched.
func terminated(res *http.Response) *http.Response {
	cp := *res
	cp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(res.Body, strings.NewReader("\n\n")), res.Body}
	return &cp
}

// isChunk reports whether record has the shape of a completion chunk.
func isChunk(record gjson.Result) bool {
	if !record.IsObject() {
		return false
	}
	choices := record.Get("choices")
	return !choices.Exists() || choices.IsArray()
}

func truncate(data []byte) string {
	if len(data) <= maxLoggedPayload {
		return string(data)
	}
	return string(data[:maxLoggedPayload]) + "..."
}
