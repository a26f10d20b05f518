// Minto: Minto Pyramid Principle analysis server.
//
// Usage:
//
//	minto serve                      # Start MCP server (stdio transport)
//	minto analyze --brief "..."      # Run one analysis offline and print it
//	minto version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
