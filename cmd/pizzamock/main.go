package main

import (
	"context"
	"fmt"
	"os"

	"github.com/frk/httpmock/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "pizzamock:", err)
		os.Exit(1)
	}
}
