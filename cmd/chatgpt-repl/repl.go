package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	loggerpkg "github.com/minhyannv/chatgpt-repl/pkg/logger"
	"github.com/minhyannv/chatgpt-repl/pkg/stream"
)

const exitKeyword = "exit"

// chatSession is the part of *chat.Session the REPL drives.
type chatSession interface {
	Send(ctx context.Context, input string, sink stream.Sink) (stream.Result, error)
	Reset()
}

// replOptions configures REPL behavior.
type replOptions struct {
	Logger loggerpkg.Logger
	// TurnContext derives the context for one turn. Nil uses the parent as is.
	TurnContext func(parent context.Context) (context.Context, context.CancelFunc)
}

// runREPL starts an interactive REPL session.
func runREPL(ctx context.Context, session chatSession, opts replOptions, in io.Reader, out io.Writer) error {
	if session == nil {
		return fmt.Errorf("chat session is required")
	}
	if in == nil {
		return fmt.Errorf("input reader is required")
	}
	if out == nil {
		out = io.Discard
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log := loggerpkg.OrNop(opts.Logger)
	log.Debug("repl start", nil)

	scanner := bufio.NewScanner(in)
	printWelcome(out)

	for {
		_, _ = fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			_, _ = fmt.Fprintln(out, "Goodbye!")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, exitKeyword) {
			_, _ = fmt.Fprintln(out, "Goodbye!")
			break
		}

		if strings.HasPrefix(input, "/") {
			if handleCommand(input, session, out) {
				break
			}
			continue
		}

		if err := runTurn(ctx, session, opts, input, out); err != nil {
			log.Debug("turn failed", map[string]any{"error": err.Error()})
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
			if ctx.Err() != nil {
				_, _ = fmt.Fprintln(out, "Goodbye!")
				break
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// runTurn streams one reply to out and guarantees the cursor ends on a
// fresh line.
func runTurn(ctx context.Context, session chatSession, opts replOptions, input string, out io.Writer) error {
	turnCtx, cancel := ctx, context.CancelFunc(func() {})
	if opts.TurnContext != nil {
		turnCtx, cancel = opts.TurnContext(ctx)
	}
	defer cancel()

	var last string
	result, err := session.Send(turnCtx, input, func(fragment string) {
		_, _ = io.WriteString(out, fragment)
		last = fragment
	})
	if err != nil {
		if last != "" && !strings.HasSuffix(last, "\n") {
			_, _ = fmt.Fprintln(out)
		}
		return err
	}

	if !strings.HasSuffix(result.Text, "\n") {
		_, _ = fmt.Fprintln(out)
	}
	return nil
}

func printWelcome(out io.Writer) {
	_, _ = fmt.Fprintln(out, "Welcome to the ChatGPT REPL!")
	_, _ = fmt.Fprintf(out, "Type a question and press Enter. Type '%s' to leave.\n", exitKeyword)
	printCommands(out)
}

// handleCommand runs a slash command. It reports whether the REPL should stop.
func handleCommand(input string, session chatSession, out io.Writer) (quit bool) {
	switch strings.ToLower(input) {
	case "/help", "/h":
		printCommands(out)
	case "/clear", "/c":
		session.Reset()
		_, _ = fmt.Fprintln(out, "Conversation history cleared.")
	case "/quit", "/exit", "/q":
		_, _ = fmt.Fprintln(out, "Goodbye!")
		return true
	default:
		_, _ = fmt.Fprintf(out, "Unknown command: %s (try /help)\n", input)
	}
	return false
}

func printCommands(out io.Writer) {
	_, _ = fmt.Fprintf(out, "  %-16s%s\n", exitKeyword+", /quit, /q", "end the session")
	_, _ = fmt.Fprintf(out, "  %-16s%s\n", "/clear, /c", "forget the conversation so far")
	_, _ = fmt.Fprintf(out, "  %-16s%s\n", "/help, /h", "list these commands")
}
