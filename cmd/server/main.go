package main

import (
	"context"
	"log"

	"github.com/sean-rowe/weather-outfit/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Start(context.Background()); err != nil {
		application.Stop()
		log.Fatalf("failed to start application: %v", err)
	}

	application.WaitForShutdown()
	application.Stop()
}
