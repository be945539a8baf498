package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"library-bot/bot"
	"library-bot/library"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	storeKind string
	seedPath  string
	chatUser  int64
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	root := &cobra.Command{
		Use:           "library-bot",
		Short:         "Chat front-end for an in-memory library catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&storeKind, "store", "memory", "catalog store: memory or sqlite")
	root.PersistentFlags().StringVar(&seedPath, "seed", "", "CSV file of isbn,title,author,quantity rows to preload")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is a convenience for local runs; a missing file is fine.
			_ = godotenv.Load()
			token := os.Getenv("BOT_TOKEN")
			if token == "" {
				return fmt.Errorf("BOT_TOKEN is not set")
			}

			svc, err := openStore(logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			return bot.RunTelegram(token, bot.NewHandler(svc, logger), logger)
		},
	}

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot in a local terminal session",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openStore(logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			return runLocalChat(bot.NewHandler(svc, logger), chatUser)
		},
	}
	chat.Flags().Int64Var(&chatUser, "user", 1, "user ID to chat as")

	root.AddCommand(serve, chat)

	if err := root.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// openStore builds the configured Service and applies the seed file, if
// any.
func openStore(logger *slog.Logger) (library.Service, error) {
	var svc library.Service
	switch storeKind {
	case "memory":
		svc = library.NewCatalog()
	case "sqlite":
		db, err := library.NewDatabase(":memory:")
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		svc = db
	default:
		return nil, fmt.Errorf("unknown store %q", storeKind)
	}
	logger.Info("catalog store ready", "kind", storeKind)

	if seedPath != "" {
		res, err := library.SeedFromCSV(svc, seedPath)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		for _, bad := range res.Bad {
			logger.Warn("seed row skipped", "reason", bad)
		}
		logger.Info("catalog seeded", "books", res.Added, "skipped", len(res.Bad))
	}
	return svc, nil
}

// runLocalChat drives the dispatcher from stdin: lines starting with "/"
// are commands, everything else is a plain reply.
func runLocalChat(h *bot.Handler, userID int64) error {
	fmt.Println("Local chat session. Type /help for commands, 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			fmt.Println("Goodbye!")
			return nil
		}

		var reply string
		if strings.HasPrefix(line, "/") {
			cmd := strings.TrimPrefix(strings.Fields(line)[0], "/")
			reply = h.HandleCommand(userID, cmd)
		} else {
			reply = h.HandleMessage(userID, line)
		}
		fmt.Println(reply)
	}
	return scanner.Err()
}
