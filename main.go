package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/klokku/calmcash/internal/app"
	log "github.com/sirupsen/logrus"
)

func init() {
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	application := app.NewApplication()
	if err := application.Run(ctx, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
