// scheduled-jobs runs the reminder jobs once and exits. Meant for Cloud
// Scheduler or cron; the HTTP trigger at /internal/jobs/run does the same
// work in-process.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/scheduled-jobs
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/models"
	"bitbucket.org/mmdatafocus/portal_backend/workflow"
)

func main() {
	ctx := context.Background()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	config.ConnectRedis()

	models.MigrateTable()

	jobs := workflow.NewReminderJobs(&workflow.GormReminderStore{}, &config.PubSubNotifier{})
	jobs.RunAll(ctx)

	fmt.Println("reminder jobs completed")
}
