package main

import (
	"context"
	"log"

	"turnboard/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (postgres, event bus, Telegram notifier).
// 3) Start the outbox relay loop and the batch notification consumers.
func main() {
	log.Println("turnboard worker starting")
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("turnboard worker stopped with error: %v", err)
	}
}
