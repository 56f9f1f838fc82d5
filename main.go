package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"feedsync/config"
	"feedsync/pkg/logger"
	"feedsync/service"
)

const CliVersion = "1.0.0"

// exit is replaced in tests.
var exit = os.Exit

func main() {
	RealMain()
}

func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("feedsync version %s\n", CliVersion)
	case "serve":
		cfg, ok := loadConfig()
		if !ok {
			return
		}
		exitOnFailure(serve(cfg))
	case "liked":
		cfg, ok := loadConfig()
		if !ok {
			return
		}
		service.SetDBPath(cfg.DataDir)
		exitOnFailure(service.ShowLiked())
	case "db":
		cfg, ok := loadConfig()
		if !ok {
			return
		}
		service.SetDBPath(cfg.DataDir)
		exitOnFailure(service.HandleCommand(os.Args[2:]))
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: feedsync <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve                          Sync the feed with the post store and serve the local API.
  liked                          Print the persisted liked posts.
  db <init|clean|backup|restore> Manage the liked-posts database.

Environment:
  FEEDSYNC_API_URL               Post store base URL.
  FEEDSYNC_DATA_DIR              Liked-posts database directory (default data/badger).
  FEEDSYNC_LISTEN_ADDR           Local API address (default :8080).
  FEEDSYNC_HTTP_TIMEOUT          Post store request timeout, 0 for none.
  FEEDSYNC_LOG_LEVEL             debug, info, warn or error.
  FEEDSYNC_LOG_FORMAT            text or json.
`
	fmt.Println(helpText)
}

func loadConfig() (config.Config, bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		exit(1)
		return config.Config{}, false
	}
	return cfg, true
}

func exitOnFailure(code int) {
	if code != 0 {
		exit(code)
	}
}

// serve runs the feed server until SIGINT or SIGTERM.
func serve(cfg config.Config) int {
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	if err := service.RunAppServer(ctx, cfg); err != nil {
		log.Error("server stopped", "error", err)
		return 1
	}
	return 0
}
