package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"peerbets/cmd"
	"peerbets/database"

	log "github.com/sirupsen/logrus"
)

const migrateUsage = "usage: peerbets migrate [up|down|force|status] [args...]"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if len(os.Args) < 3 {
			log.Fatal(migrateUsage)
		}
		if err := database.RunMigrationCommand(os.Args[2], os.Args[3:]); err != nil {
			log.WithError(err).Fatal("Migration failed")
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("Application error")
	}
}
