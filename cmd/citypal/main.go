package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/citypal/citypal/internal/agent"
	"github.com/citypal/citypal/internal/conversation"
)

func main() {
	// Load .env if present; real environment wins over config file entries.
	_ = godotenv.Load()

	ctx := context.Background()

	fs := flag.NewFlagSet("citypal", flag.ExitOnError)
	enableStreaming := fs.Bool("stream", false, "Show progress events while the agent works")
	dbFlag := fs.String("db", "", "Conversation database path ('memory' for no persistence)")
	verbose := fs.Bool("verbose", false, "Log node transitions and tool calls")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	env, err := prepareRuntimeEnv(ctx, *dbFlag, *verbose)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer env.Close()

	if err := runREPL(ctx, env, *enableStreaming); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func runREPL(ctx context.Context, env *runtimeEnv, streaming bool) error {
	conv, err := env.Service.StartConversation(ctx, "CLI session")
	if err != nil {
		return err
	}

	fmt.Println("citypal: ask about a city's weather, local time or facts.")
	fmt.Println("Commands: /new [title], /list, /history, /delete <id>, /quit")

	s := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !s.Scan() {
			break
		}
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, newConv := handleCommand(ctx, env, conv, line)
			if quit {
				return nil
			}
			if newConv != nil {
				conv = *newConv
			}
			continue
		}

		if streaming {
			streamTurn(ctx, env, conv.ID, line)
		} else {
			blockingTurn(ctx, env, conv.ID, line)
		}
		fmt.Println()
	}
	return s.Err()
}

func blockingTurn(ctx context.Context, env *runtimeEnv, conversationID, line string) {
	res, err := env.Service.SendMessage(ctx, conversationID, line)
	if err != nil {
		log.Printf("turn ended abnormally: %v", err)
	}
	fmt.Printf("citypal> %s\n", res.Response)
}

func streamTurn(ctx context.Context, env *runtimeEnv, conversationID, line string) {
	events, err := env.Service.StreamMessage(ctx, conversationID, line)
	if err != nil {
		log.Printf("failed to start turn: %v", err)
		return
	}

	for ev := range events {
		switch ev.Type {
		case agent.EventNode:
			if ev.Status == "start" {
				fmt.Printf("  .. %s\n", ev.Message)
			}
		case agent.EventTool:
			fmt.Printf("  -> %s\n", ev.Message)
		case agent.EventRetry:
			fmt.Printf("  !! %s\n", ev.Message)
		case agent.EventFinal, agent.EventError:
			response, _ := ev.Data["response"].(string)
			fmt.Printf("citypal> %s\n", response)
		}
	}
}

func handleCommand(ctx context.Context, env *runtimeEnv, current conversation.Conversation, line string) (quit bool, newConv *conversation.Conversation) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil

	case "/new":
		title := strings.TrimSpace(strings.TrimPrefix(line, "/new"))
		c, err := env.Service.StartConversation(ctx, title)
		if err != nil {
			log.Printf("failed to create conversation: %v", err)
			return false, nil
		}
		fmt.Printf("started %s (%s)\n", c.ID, c.Title)
		return false, &c

	case "/list":
		convs, err := env.Service.ListConversations(ctx)
		if err != nil {
			log.Printf("failed to list conversations: %v", err)
			return false, nil
		}
		for _, c := range convs {
			marker := " "
			if c.ID == current.ID {
				marker = "*"
			}
			fmt.Printf("%s %s  %s  (updated %s)\n", marker, c.ID, c.Title, c.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return false, nil

	case "/history":
		msgs, err := env.Service.History(ctx, current.ID)
		if err != nil {
			log.Printf("failed to load history: %v", err)
			return false, nil
		}
		for _, m := range msgs {
			fmt.Printf("[%s] %s\n", m.Role, m.Content)
		}
		return false, nil

	case "/delete":
		if len(fields) < 2 {
			fmt.Println("usage: /delete <conversation-id>")
			return false, nil
		}
		if err := env.Service.DeleteConversation(ctx, fields[1]); err != nil {
			if errors.Is(err, conversation.ErrNotFound) {
				fmt.Println("no such conversation")
			} else {
				log.Printf("failed to delete conversation: %v", err)
			}
			return false, nil
		}
		fmt.Println("deleted")
		return false, nil

	default:
		fmt.Println("unknown command; available: /new, /list, /history, /delete, /quit")
		return false, nil
	}
}
