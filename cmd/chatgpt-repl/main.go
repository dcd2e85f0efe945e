// Package main provides an interactive streaming chat REPL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/minhyannv/chatgpt-repl/pkg/chat"
	loggerpkg "github.com/minhyannv/chatgpt-repl/pkg/logger"
)

// main is the program entry point.
func main() {
	_ = godotenv.Load()

	config, err := parseCLIConfig(os.Args[1:], os.Getenv, os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	appLogger := loggerpkg.NewWriterLogger(os.Stderr, config.Verbose)
	client, err := chat.NewClient(config, chat.WithLogger(appLogger))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	session := chat.NewSession(client, config.SystemPrompt, config.Timeout, chat.WithLogger(appLogger))
	appLogger.Debug("session ready", map[string]any{"session_id": session.ID()})

	if err := runREPL(context.Background(), session, replOptions{
		Logger:      appLogger,
		TurnContext: interruptibleTurn,
	}, os.Stdin, os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// interruptibleTurn lets Ctrl-C abort the reply in flight without leaving
// the REPL. Outside a turn the default signal behavior applies.
func interruptibleTurn(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
