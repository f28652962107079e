package main

import (
	"fmt"
	"os"

	"weblidercontrol/internal/trigger"
)

func main() {
	if err := trigger.RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
