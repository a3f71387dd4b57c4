// Command pomo is the entry point for the timer daemon and its CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"pomo/internal/cli"
)

func main() {
	app := cli.New()

	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
