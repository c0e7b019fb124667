package main

import (
	"context"
	"fmt"
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "new":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: madea new <dir> [username]")
			os.Exit(1)
		}
		username := ""
		if len(os.Args) > 3 {
			username = os.Args[3]
		}
		if err := runNew(os.Args[2], username); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("madea %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`madea - markdown blogs served from GitHub or a local directory

Usage:
  madea <command> [arguments]

Commands:
  serve                  Run the blog server (configured from the environment and .env)
  new <dir> [username]   Create a new content directory with a first post
  version                Print the madea version
  help                   Show this help message

Examples:
  madea new my-blog jdoe
  USE_LOCAL_FS=true LOCAL_CONTENT_DIR=my-blog madea serve`)
}
