package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dkwan/tasklens/internal/config"
	"github.com/dkwan/tasklens/internal/domain"
	"github.com/dkwan/tasklens/internal/matcher"
	"github.com/dkwan/tasklens/internal/mcp"
	"github.com/dkwan/tasklens/internal/service"
	"github.com/dkwan/tasklens/internal/storage"
	"github.com/dkwan/tasklens/internal/telemetry"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg)

	server, err := buildServer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize")
	}

	// Default to MCP transport mode; --cli gives an interactive prompt.
	if len(os.Args) > 1 && os.Args[1] == "--cli" {
		runCLI(server)
		return
	}

	transport := mcp.NewTransport(server, log)
	if err := transport.Start(); err != nil {
		log.WithError(err).Fatal("transport error")
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	// Stdout carries the JSON-RPC stream; logs go to stderr.
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}

func buildServer(cfg *config.Config, log *logrus.Logger) (*mcp.Server, error) {
	repo, err := newRepository(cfg)
	if err != nil {
		return nil, err
	}

	tasks := service.NewTaskService(repo)
	sink := telemetry.NewLogSink(log)
	m := matcher.NewTaskMatcher(repo, sink, log)
	rc := matcher.NewResolutionCoordinator(log)

	limits := mcp.Limits{MaxResults: cfg.MaxResults, MinConfidence: cfg.MinConfidence}
	return mcp.NewServer(tasks, m, rc, limits, log), nil
}

func newRepository(cfg *config.Config) (domain.TaskRepository, error) {
	switch cfg.StorageType {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		return storage.OpenSQLite(filepath.Join(cfg.StoragePath, "tasklens.db"))
	case "file":
		return storage.NewFileStorage(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}

func runCLI(server *mcp.Server) {
	fmt.Println("tasklens CLI started")
	fmt.Println("Type 'help' for available commands or 'quit' to exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("tasklens> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			fmt.Println("Goodbye!")
			break
		}
		if input == "help" {
			printHelp()
			continue
		}

		handleCommand(server, input)
	}
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  help                         - Show this help")
	fmt.Println("  quit/exit                    - Exit")
	fmt.Println()
	fmt.Println("Commands (JSON parameters after the method name):")
	fmt.Println("  Task commands:")
	fmt.Println("    tasklens.task.create        - Create a task")
	fmt.Println("    tasklens.task.list          - List tasks")
	fmt.Println("    tasklens.task.get           - Get a task")
	fmt.Println("    tasklens.task.update        - Update a task")
	fmt.Println("    tasklens.task.delete        - Delete a task")
	fmt.Println()
	fmt.Println("  Matching commands:")
	fmt.Println("    tasklens.match.find         - Match tasks against a phrase")
	fmt.Println("    tasklens.match.search       - Intent-aware search")
	fmt.Println("    tasklens.match.extract      - Extract a task reference + intent")
	fmt.Println("    tasklens.weights.get        - Show matching weights")
	fmt.Println("    tasklens.weights.update     - Merge a partial weights update")
	fmt.Println()
	fmt.Println("  Resolution commands:")
	fmt.Println("    tasklens.resolution.open    - Open a disambiguation request")
	fmt.Println("    tasklens.resolution.status  - Show the pending request")
	fmt.Println("    tasklens.resolution.resolve - Resolve the pending request")
	fmt.Println("    tasklens.resolution.cancel  - Cancel the pending request")
	fmt.Println()
	fmt.Println("Example usage:")
	fmt.Println("  tasklens.task.create {\"title\":\"Fix login bug\",\"tags\":[\"bug\",\"urgent\"]}")
	fmt.Println("  tasklens.match.find {\"query\":\"login issue\"}")
	fmt.Println("  tasklens.match.search {\"query\":\"finish the login bug\"}")
	fmt.Println("  tasklens.weights.update {\"exactTitle\":0.95}")
}

func handleCommand(server *mcp.Server, input string) {
	parts := strings.SplitN(input, " ", 2)
	method := parts[0]

	var params json.RawMessage
	if len(parts) > 1 {
		if err := json.Unmarshal([]byte(parts[1]), &params); err != nil {
			fmt.Printf("Error: invalid JSON parameters: %v\n", err)
			return
		}
	}

	result, err := server.HandleCommand(method, params)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("Error formatting result: %v\n", err)
		return
	}
	fmt.Println(string(output))
}
