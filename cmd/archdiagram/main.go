package main

import (
	"context"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	ctx := context.Background()
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
