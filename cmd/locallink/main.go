package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "locallink",
		Usage: "Disaster-relief resource bridge: anonymous needs and offers with a realtime feed",
		Commands: []*cli.Command{
			serveCommand,
			watchCommand,
			seedCommand,
			nanoidCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
