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

package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/dtos"
	"github.com/threatlinker/threatlinker/monitoring"
	"github.com/threatlinker/threatlinker/shared"
	"github.com/threatlinker/threatlinker/utils"
	"github.com/threatlinker/threatlinker/vulndb"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskController struct {
	taskRepository        shared.TaskRepository
	correlationRepository shared.CorrelationRepository
	taskService           shared.TaskService
	nvdService            vulndb.NVDService
}

func NewTaskController(taskRepository shared.TaskRepository, correlationRepository shared.CorrelationRepository, taskService shared.TaskService, nvdService vulndb.NVDService) *TaskController {
	return &TaskController{
		taskRepository:        taskRepository,
		correlationRepository: correlationRepository,
		taskService:           taskService,
		nvdService:            nvdService,
	}
}

// Create accepts a correlation job and dispatches it asynchronously. The
// response carries the pending task, clients poll or register a callback
// url to learn about completion.
func (taskController TaskController) Create(ctx shared.Context) error {
	var req dtos.TaskCreateRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(400, "unable to process request").WithInternal(err)
	}

	if err := shared.V.Struct(req); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}

	task := models.Task{
		Name:        req.Name,
		Type:        models.TaskTypeCorrelation,
		Status:      models.TaskStatusPending,
		CVEHosts:    datatypes.NewJSONSlice(req.CVEList),
		AIModel:     req.AIModel,
		Notes:       req.Notes,
		CallbackURL: req.CallbackURL,
	}
	if err := taskController.taskRepository.Create(nil, &task); err != nil {
		return echo.NewHTTPError(500, "could not create task").WithInternal(err)
	}

	go taskController.dispatch(task.ID, req.CVEList)

	return ctx.JSON(http.StatusAccepted, taskToDTO(task))
}

// dispatch runs outside the request: it makes sure the referenced CVEs
// exist locally and hands the task to the orchestrator.
func (taskController TaskController) dispatch(taskID uuid.UUID, cveIDs []string) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.RecoverAndAlert("task dispatch panicked", errors.Errorf("%v", r))
		}
	}()

	ctx := context.Background()
	if _, err := taskController.nvdService.EnsureCVEs(cveIDs); err != nil {
		slog.Error("could not ensure cves before dispatch", "task", taskID.String(), "err", err)
	}

	if err := taskController.taskService.StartCorrelationTask(ctx, taskID); err != nil {
		slog.Error("correlation task failed", "task", taskID.String(), "err", err)
	}
}

func (taskController TaskController) List(ctx shared.Context) error {
	tasks, err := taskController.taskRepository.All()
	if err != nil {
		return echo.NewHTTPError(500, "could not list tasks").WithInternal(err)
	}

	dtoList := make([]dtos.TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		dtoList = append(dtoList, taskToDTO(task))
	}
	return ctx.JSON(200, dtoList)
}

func (taskController TaskController) Read(ctx shared.Context) error {
	taskID, err := parseTaskID(ctx)
	if err != nil {
		return err
	}

	task, err := taskController.taskRepository.Read(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(404, "task not found")
		}
		return echo.NewHTTPError(500, "could not read task").WithInternal(err)
	}
	return ctx.JSON(200, taskToDTO(task))
}

func (taskController TaskController) ListCorrelations(ctx shared.Context) error {
	taskID, err := parseTaskID(ctx)
	if err != nil {
		return err
	}

	correlations, err := taskController.correlationRepository.FindByTaskID(taskID)
	if err != nil {
		return echo.NewHTTPError(500, "could not list correlations").WithInternal(err)
	}

	// ?cveList=CVE-...,CVE-... narrows the response to the given ids
	if query := ctx.QueryParam("cveList"); query != "" {
		requested := make(map[string]struct{})
		for _, id := range dtos.ParseCVEList(query) {
			requested[id] = struct{}{}
		}
		correlations = utils.Filter(correlations, func(c models.SingleCorrelation) bool {
			_, ok := requested[c.CVEID]
			return ok
		})
	}

	dtoList := make([]dtos.CorrelationDTO, 0, len(correlations))
	for _, correlation := range correlations {
		var scores dtos.SimilarityScores
		if len(correlation.SimilarityScores) > 0 {
			if err := json.Unmarshal(correlation.SimilarityScores, &scores); err != nil {
				return echo.NewHTTPError(500, "could not decode similarity scores").WithInternal(err)
			}
		}
		dtoList = append(dtoList, dtos.CorrelationDTO{
			ID:               correlation.ID,
			CVEID:            correlation.CVEID,
			Status:           string(correlation.Status),
			SimilarityScores: scores,
			CreatedAt:        correlation.CreatedAt,
		})
	}
	return ctx.JSON(200, dtoList)
}

func parseTaskID(ctx shared.Context) (uuid.UUID, error) {
	taskID, err := uuid.Parse(shared.SanitizeParam(ctx.Param("taskID")))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(400, "invalid task id").WithInternal(err)
	}
	return taskID, nil
}

func taskToDTO(task models.Task) dtos.TaskDTO {
	return dtos.TaskDTO{
		ID:          task.ID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Name:        task.Name,
		Type:        string(task.Type),
		Status:      string(task.Status),
		CVEList:     task.CVEHosts,
		AIModel:     task.AIModel,
		Notes:       task.Notes,
		CallbackURL: task.CallbackURL,
	}
}
