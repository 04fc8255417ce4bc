package main

import (
	"fmt"
	"os"

	"eden/internal/cli"
	"eden/internal/config"
)

func main() {
	config.LoadDotenv()
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "edenctl:", err)
		os.Exit(1)
	}
}
