// cmd/orderlyctl/main.go
//
// orderlyctl edits the puzzle schedule directly against the repository the
// server uses (DB_PATH). Every write goes through the same authoring rules
// and optimistic version check as the admin API.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := newRootCmd(&app{out: os.Stdout}).Execute(); err != nil {
		os.Exit(1)
	}
}
