// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/fanoutlabs/coordinator/lib/mention"
	"github.com/fanoutlabs/coordinator/lib/version"
	"github.com/fanoutlabs/coordinator/lib/wire"
)

const defaultSocketPath = "/run/fanout-coordinator/coordinator.sock"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	subcommand := os.Args[1]
	switch subcommand {
	case "register":
		return runRegister(os.Args[2:])
	case "notify":
		return runNotify(os.Args[2:])
	case "status":
		return runStatus(os.Args[2:])
	case "version":
		fmt.Printf("fanout-notify %s\n", version.Info())
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: fanout-notify <subcommand> [flags]

Subcommands:
  register    Join a fan-out round and block until it is your turn
  notify      Deliver a reply for a turn opened by register
  status      Print a channel's current coordination state
  version     Print version information

Run with -socket to override the default socket path (%s).
`, defaultSocketPath)
}

func socketPath(flags *flag.FlagSet) *string {
	return flags.String("socket", defaultSocketPath, "coordinator daemon socket path")
}

// runRegister joins a fan-out round for one agent and blocks until
// the coordinator invokes its turn. The accumulated responses it
// missed are printed to stdout, one per line, so a caller can feed
// them into its own reply pipeline without parsing CBOR itself.
func runRegister(args []string) error {
	flags := flag.NewFlagSet("register", flag.ExitOnError)
	var (
		channelID   string
		accountID   string
		botUserID   string
		triggerBody string
		messageID   string
	)
	socket := socketPath(flags)
	flags.StringVar(&channelID, "channel", "", "channel id (required)")
	flags.StringVar(&accountID, "account", "", "this agent's opaque account id (required)")
	flags.StringVar(&botUserID, "bot-user", "", "this agent's bot user id, for mention matching (required)")
	flags.StringVar(&messageID, "message", "", "id of the triggering message; every agent registering for the same trigger must pass the same id (a random id is used if omitted)")
	flags.StringVar(&triggerBody, "trigger-body", "", "text of the triggering message, to extract mentions and seed round 1")
	flags.Parse(args)

	if channelID == "" || accountID == "" || botUserID == "" {
		flags.Usage()
		return fmt.Errorf("--channel, --account, and --bot-user are required")
	}
	if messageID == "" {
		messageID = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := wire.NewClient(*socket)

	fields := map[string]any{
		"channel_id":  channelID,
		"message_id":  messageID,
		"account_id":  accountID,
		"bot_user_id": botUserID,
	}
	if triggerBody != "" {
		fields["trigger_text"] = triggerBody
		if mentioned := mention.Extract(triggerBody); len(mentioned) > 0 {
			fields["mentioned_user_ids"] = mentioned
		}
	}

	var result struct {
		Round                int      `cbor:"round"`
		AccumulatedResponses []string `cbor:"accumulated_responses"`
	}
	if err := client.Call(ctx, "register", fields, &result); err != nil {
		return err
	}

	fmt.Printf("round %d\n", result.Round)
	for _, line := range result.AccumulatedResponses {
		fmt.Println(line)
	}
	return nil
}

func runNotify(args []string) error {
	flags := flag.NewFlagSet("notify", flag.ExitOnError)
	var (
		channelID    string
		accountID    string
		responseText string
	)
	socket := socketPath(flags)
	flags.StringVar(&channelID, "channel", "", "channel id (required)")
	flags.StringVar(&accountID, "account", "", "this agent's opaque account id (required)")
	flags.StringVar(&responseText, "text", "", "reply text (empty means explicit silence)")
	flags.Parse(args)

	if channelID == "" || accountID == "" {
		flags.Usage()
		return fmt.Errorf("--channel and --account are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := wire.NewClient(*socket)
	return client.Call(ctx, "notify", map[string]any{
		"channel_id":    channelID,
		"account_id":    accountID,
		"response_text": responseText,
	}, nil)
}

func runStatus(args []string) error {
	flags := flag.NewFlagSet("status", flag.ExitOnError)
	var channelID string
	socket := socketPath(flags)
	flags.StringVar(&channelID, "channel", "", "channel id (required)")
	flags.Parse(args)

	if channelID == "" {
		flags.Usage()
		return fmt.Errorf("--channel is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := wire.NewClient(*socket)

	var result struct {
		Known            bool `cbor:"known"`
		IsProcessing     bool `cbor:"is_processing"`
		CurrentRound     int  `cbor:"current_round"`
		RegisteredAgents int  `cbor:"registered_agents"`
	}
	if err := client.Call(ctx, "status", map[string]any{"channel_id": channelID}, &result); err != nil {
		return err
	}

	if !result.Known {
		fmt.Println("unknown channel")
		return nil
	}
	fmt.Printf("processing=%v round=%d registered=%d\n", result.IsProcessing, result.CurrentRound, result.RegisteredAgents)
	return nil
}
