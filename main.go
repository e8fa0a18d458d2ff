package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/adsynq/adsynq/internal/bootstrap"
	"github.com/adsynq/adsynq/internal/config"
	"github.com/adsynq/adsynq/internal/version"
)

func main() {
	// Define flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

	// Check if command is provided
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Handle subcommands
	switch args[0] {
	case "server":
		if err := bootstrap.Run(config.Load()); err != nil {
			log.Fatalf("adsynq: %v", err)
		}
	case "version":
		version.PrintVersion()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("Connects advertising platforms to the adsynq backend")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the connector server")
	fmt.Println("  version   Show version information")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}
