package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/tryon-compositor-mcp/internal/config"
	"github.com/ironsheep/tryon-compositor-mcp/internal/server"
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
			fmt.Printf("tryon-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("tryon-mcp - MCP server for garment try-on compositing")
			fmt.Println()
			fmt.Println("Usage: tryon-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  TRYON_MCP_LOG_LEVEL=debug       Enable debug logging")
			fmt.Println("  TRYON_CONFIG=<path>             JSON config file")
			fmt.Println("  TRYON_POLICY=fixed_box|centered Placement without landmarks")
			fmt.Println("  TRYON_BOX_X, TRYON_BOX_Y, TRYON_BOX_WIDTH, TRYON_BOX_HEIGHT")
			fmt.Println("                                  fixed_box fractions (0-1)")
			fmt.Println("  TRYON_GARMENT_WIDTH_FACTOR      Shoulder width multiplier (default 1.8)")
			fmt.Println("  TRYON_TORSO_HEIGHT_FACTOR       Torso height multiplier (default 1.0)")
			fmt.Println("  TRYON_MASK_ENABLED=true         Mask opaque garments to the person")
			fmt.Println("  TRYON_MASK_THRESHOLD            Mask confidence threshold (0-255)")
			fmt.Println("  TRYON_MASK_TOLERANCE            Backdrop color tolerance")
			fmt.Println("  TRYON_OUTPUT_FORMAT             jpeg, png or webp")
			fmt.Println("  TRYON_JPEG_QUALITY              1-100")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	debug := os.Getenv("TRYON_MCP_LOG_LEVEL") == "debug"
	if debug {
		log.Printf("Try-on MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if debug {
		log.Printf("Config: policy=%s mask=%v output=%s", cfg.Placement.Policy, cfg.Mask.Enabled, cfg.Output.Format)
	}

	srv := server.New(cfg, server.WithVersion(Version), server.WithDebug(debug))
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
