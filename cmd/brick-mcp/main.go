package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ironsheep/brick-finder/internal/config"
	"github.com/ironsheep/brick-finder/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("brick-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("brick-mcp - MCP server that finds bricks in photos")
			fmt.Println()
			fmt.Println("Usage: brick-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from .env):")
			fmt.Println("  BRICK_MCP_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println("  BRICK_MCP_CONFIG=<path>      YAML configuration file")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client.")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	debug := os.Getenv("BRICK_MCP_LOG_LEVEL") == "debug"

	cfgPath := os.Getenv("BRICK_MCP_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	debug = debug || cfg.Output.Verbose

	if debug {
		log.Printf("Brick MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		if cfgPath != "" {
			log.Printf("Using configuration %s", cfgPath)
		}
	}

	srv := server.New(cfg)
	srv.SetDebug(debug)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
