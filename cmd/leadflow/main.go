// Command leadflow runs a headless CRM client: it keeps a session alive,
// follows the realtime channel and serves a local status surface.
package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"leadflow/cmd/internal/app"
)

func main() {
	if err := app.Run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
}
