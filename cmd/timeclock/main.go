package main

import (
	"os"

	"example.com/timeclock/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
