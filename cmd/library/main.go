// Command library runs the library REST API server.
//
// Settings come from flags, the environment and an optional .env file; see
// the config package for the full list. For example:
//
//	STORAGE=memory go run ./cmd/library -p 3005
package main

import (
	"log"

	"github.com/patric-chuzhbe/library/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	theApp, err := app.New()
	if err != nil {
		return err
	}
	defer theApp.Close()

	return theApp.Run()
}
