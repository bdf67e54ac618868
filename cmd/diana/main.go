package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Cancellation has already been reported by the interrupted command.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "diana:", err)
		}
		os.Exit(1)
	}
}
