package cmd

import (
	"fmt"
	"os"
)

// runVersion prints version and key environment status.
func runVersion() {
	fmt.Printf("Quorum %s (commit %s)\n", Version, GitCommit)

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		fmt.Println("OPENAI_API_KEY: configured")
	} else {
		fmt.Println("OPENAI_API_KEY: not set")
		fmt.Println()
		fmt.Println("Hint: export OPENAI_API_KEY=your-api-key")
	}
}
