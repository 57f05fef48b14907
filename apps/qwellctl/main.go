package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/quatton/qwell/apps/qwellctl/cmd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "qwellctl crashed: %v\n", r)
			if os.Getenv("QWELL_DEBUG") != "" {
				debug.PrintStack()
			}
			os.Exit(2)
		}
	}()

	cmd.Execute()
}
