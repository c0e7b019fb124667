package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/eringen/madea/scaffold"
)

func runNew(dir, username string) error {
	fmt.Printf("Creating new madea blog: %s\n\n", dir)

	created, err := scaffold.Generate(dir, scaffold.NewData(dir, username))
	for _, p := range created {
		fmt.Printf("  created %s\n", p)
	}
	if err != nil {
		return err
	}

	// Commit dates come from git history; without it articles are dated by mtime.
	if _, err := exec.LookPath("git"); err == nil {
		initCmd := exec.Command("git", "init", "-q")
		initCmd.Dir = dir
		initCmd.Stderr = os.Stderr
		if err := initCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "\nWarning: git init failed: %v\n", err)
		}
	}

	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", dir)
	fmt.Println("  cp .env.example .env")
	fmt.Println("  madea serve")
	fmt.Println()
	fmt.Println("Push the directory to a GitHub repository named madea.blog to publish it.")
	return nil
}
