package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if err := newRootCommand().Execute(); err != nil {
		log.WithError(err).Error("rodfem failed")
		os.Exit(1)
	}
}
