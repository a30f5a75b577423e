package main

import (
	"os"

	"github.com/kelriclink/VideoTranSrt/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
