// Command schemagen regenerates TypeScript declarations, composite route
// schemas and barrel files from per-parameter JSON Schema files.
package main

import (
	"errors"
	"os"

	"github.com/apiforge/schemagen/internal/cli"
	"github.com/apiforge/schemagen/internal/notify"
)

func main() {
	if err := cli.Execute(); err != nil {
		notify.New(os.Stderr).Error("%v", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
