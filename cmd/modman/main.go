package main

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/modman/internal/app"
)

func main() {
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", app.DescribeError(err))
		os.Exit(1)
	}
}
