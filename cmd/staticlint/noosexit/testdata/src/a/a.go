package main

import (
	"fmt"
	"os"
	process "os"
	"syscall"
)

func exit(code int) {
	os.Exit(code)
}

func main() {
	fmt.Println("starting")
	defer exit(0)

	cleanup := func() {
		os.Exit(3)
	}
	_ = cleanup

	if len(os.Args) > 2 {
		process.Exit(4) // want "avoid using os.Exit in main.main"
	}
	if len(os.Args) > 1 {
		syscall.Exit(2) // want "avoid using syscall.Exit in main.main"
	}
	os.Exit(1) // want "avoid using os.Exit in main.main"
}
