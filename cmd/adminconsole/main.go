package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/adminconsole/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "adminconsole: %v\n", err)
		os.Exit(1)
	}
}
