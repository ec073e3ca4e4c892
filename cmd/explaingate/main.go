package main

import (
	"os"

	"github.com/jonwraymond/explaingate/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
