// Copyright (C) 2025 timbastin
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/threatlinker/threatlinker/controllers"
	"github.com/threatlinker/threatlinker/daemons"
	"github.com/threatlinker/threatlinker/database/repositories"
	"github.com/threatlinker/threatlinker/middlewares"
	"github.com/threatlinker/threatlinker/router"
	"github.com/threatlinker/threatlinker/services"
	"github.com/threatlinker/threatlinker/shared"
	"github.com/threatlinker/threatlinker/similarity"
	"github.com/threatlinker/threatlinker/vulndb"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the correlation api server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func initSentry() {
	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "dev"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv("ERROR_TRACKING_DSN"),
		Environment:      environment,
		Debug:            environment == "dev",
		AttachStacktrace: true,
		SendDefaultPII:   false,
	})
	if err != nil {
		slog.Error("failed to init error tracking", "err", err)
	}
}

func serve() error {
	initSentry()

	db, err := databaseFactory()
	if err != nil {
		return err
	}

	// repositories
	taskRepository := repositories.NewTaskRepository(db)
	correlationRepository := repositories.NewCorrelationRepository(db)
	cveRepository := repositories.NewCVERepository(db)
	capecRepository := repositories.NewCAPECRepository(db)

	// services
	comparatorFactory := similarity.NewComparatorFactory(shared.EmbeddingServerURL(), shared.EmbeddingAPIToken())
	correlationService, err := services.NewCorrelationService(capecRepository, correlationRepository)
	if err != nil {
		return err
	}
	workerService := services.NewWorkerService(taskRepository, cveRepository, correlationRepository, correlationService, comparatorFactory)
	callbackClient := services.NewCallbackClient(shared.CallbackAPIKey(), shared.CallbackTimeout())
	taskService := services.NewTaskService(taskRepository, correlationRepository, workerService, callbackClient, shared.WorkerCount())
	configService := services.NewConfigService(db)
	nvdService := vulndb.NewNVDService(cveRepository)
	capecService := vulndb.NewCapecService(capecRepository)

	// background catalog mirroring
	daemonRunner := daemons.NewDaemonRunner(configService, capecService)
	go daemonRunner.Start(context.Background())

	taskController := controllers.NewTaskController(taskRepository, correlationRepository, taskService, nvdService)

	e := middlewares.Server()
	router.NewAPIV1Router(e.Group(""), taskController)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return e.Start(":" + port)
}
