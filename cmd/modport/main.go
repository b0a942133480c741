package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/modport/modport/internal/cli"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	if err := cli.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
