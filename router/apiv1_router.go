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

package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/threatlinker/threatlinker/controllers"
	"github.com/threatlinker/threatlinker/shared"
)

type APIV1Router struct {
	*echo.Group
}

func NewAPIV1Router(server shared.Server, taskController *controllers.TaskController) *APIV1Router {
	server.GET("/metrics/", echo.WrapHandler(promhttp.Handler()))

	apiV1 := server.Group("/api/v1")
	apiV1.GET("/health/", func(c echo.Context) error {
		return c.String(200, "ok")
	})

	tasksRouter := apiV1.Group("/tasks")
	tasksRouter.POST("/", taskController.Create)
	tasksRouter.GET("/", taskController.List)
	tasksRouter.GET("/:taskID/", taskController.Read)
	tasksRouter.GET("/:taskID/correlations/", taskController.ListCorrelations)

	return &APIV1Router{Group: apiV1}
}
