package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cartamenu/carta/internal/pkg/billing"
	"github.com/cartamenu/carta/internal/pkg/cache"
	"github.com/cartamenu/carta/internal/pkg/database"
	"github.com/cartamenu/carta/internal/pkg/env"
	"github.com/cartamenu/carta/internal/pkg/jobqueue"
)

// The billing worker daemon: runs the renewal and overdue sweeps over the
// job queue. The HTTP facade lives in a separate service and talks to the
// same database.
func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repo := billing.NewRepository(database.DB)
	svc := billing.NewService(repo, billing.NewCachedCatalog(repo, cache.NewStore()), billing.ConfigFromEnv())

	manager := jobqueue.GetManager(svc)
	manager.Start()
	log.Println("Billing worker running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	manager.Stop()
}
