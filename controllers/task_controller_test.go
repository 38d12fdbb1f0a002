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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/dtos"
	"github.com/threatlinker/threatlinker/shared"
	"github.com/threatlinker/threatlinker/vulndb"
	"gorm.io/gorm"
)

type fakeTaskRepository struct {
	shared.TaskRepository
	mut   sync.Mutex
	tasks map[uuid.UUID]models.Task
}

func newFakeTaskRepository() *fakeTaskRepository {
	return &fakeTaskRepository{tasks: map[uuid.UUID]models.Task{}}
}

func (f *fakeTaskRepository) Create(tx shared.DB, task *models.Task) error {
	f.mut.Lock()
	defer f.mut.Unlock()
	task.ID = uuid.New()
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskRepository) Read(id uuid.UUID) (models.Task, error) {
	f.mut.Lock()
	defer f.mut.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return models.Task{}, gorm.ErrRecordNotFound
	}
	return task, nil
}

func (f *fakeTaskRepository) All() ([]models.Task, error) {
	f.mut.Lock()
	defer f.mut.Unlock()
	tasks := make([]models.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		tasks = append(tasks, task)
	}
	return tasks, nil
}

type fakeCorrelationRepository struct {
	shared.CorrelationRepository
	correlations []models.SingleCorrelation
}

func (f *fakeCorrelationRepository) FindByTaskID(taskID uuid.UUID) ([]models.SingleCorrelation, error) {
	return f.correlations, nil
}

type fakeTaskService struct {
	started chan uuid.UUID
}

func (f *fakeTaskService) StartCorrelationTask(ctx context.Context, taskID uuid.UUID) error {
	f.started <- taskID
	return nil
}

func (f *fakeTaskService) FinalizeTask(ctx context.Context, taskID uuid.UUID) error {
	return nil
}

type fakeCveRepository struct {
	shared.CveRepository
}

func (f *fakeCveRepository) FindAllListByID(ids []string) ([]models.CVE, error) {
	cves := make([]models.CVE, 0, len(ids))
	for _, id := range ids {
		cves = append(cves, models.CVE{CVE: id})
	}
	return cves, nil
}

func newTestController(taskRepository *fakeTaskRepository, correlationRepository *fakeCorrelationRepository, taskService *fakeTaskService) *TaskController {
	nvdService := vulndb.NewNVDService(&fakeCveRepository{})
	return NewTaskController(taskRepository, correlationRepository, taskService, nvdService)
}

func TestTaskControllerCreate(t *testing.T) {
	e := echo.New()

	t.Run("should persist the task and dispatch it", func(t *testing.T) {
		taskRepository := newFakeTaskRepository()
		taskService := &fakeTaskService{started: make(chan uuid.UUID, 1)}
		controller := newTestController(taskRepository, &fakeCorrelationRepository{}, taskService)

		body, _ := json.Marshal(dtos.TaskCreateRequest{
			Name:        "quarterly scan",
			CVEList:     []string{"CVE-2021-44228"},
			AIModel:     "SBERT Hyb",
			CallbackURL: shared.Ptr("https://example.com/hooks/threatlinker"),
		})
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)

		err := controller.Create(ctx)

		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, rec.Code)

		var dto dtos.TaskDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Equal(t, "pending", dto.Status)
		assert.Equal(t, []string{"CVE-2021-44228"}, dto.CVEList)

		select {
		case started := <-taskService.started:
			assert.Equal(t, dto.ID, started)
		case <-time.After(time.Second):
			t.Fatal("expected the task to be dispatched")
		}
	})

	t.Run("should reject an unknown ai model", func(t *testing.T) {
		controller := newTestController(newFakeTaskRepository(), &fakeCorrelationRepository{}, &fakeTaskService{started: make(chan uuid.UUID, 1)})

		body, _ := json.Marshal(dtos.TaskCreateRequest{
			Name:    "quarterly scan",
			CVEList: []string{"CVE-2021-44228"},
			AIModel: "GPT Hyb",
		})
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)

		err := controller.Create(ctx)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, 400, httpError.Code)
	})

	t.Run("should reject an invalid cve id", func(t *testing.T) {
		controller := newTestController(newFakeTaskRepository(), &fakeCorrelationRepository{}, &fakeTaskService{started: make(chan uuid.UUID, 1)})

		body, _ := json.Marshal(dtos.TaskCreateRequest{
			Name:    "quarterly scan",
			CVEList: []string{"CVE-1998-0001"},
			AIModel: "SBERT Hyb",
		})
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)

		err := controller.Create(ctx)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, 400, httpError.Code)
	})
}

func TestTaskControllerRead(t *testing.T) {
	e := echo.New()

	t.Run("should return 404 for an unknown task", func(t *testing.T) {
		controller := newTestController(newFakeTaskRepository(), &fakeCorrelationRepository{}, &fakeTaskService{started: make(chan uuid.UUID, 1)})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)
		ctx.SetParamNames("taskID")
		ctx.SetParamValues(uuid.NewString())

		err := controller.Read(ctx)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, 404, httpError.Code)
	})

	t.Run("should return 400 for a malformed task id", func(t *testing.T) {
		controller := newTestController(newFakeTaskRepository(), &fakeCorrelationRepository{}, &fakeTaskService{started: make(chan uuid.UUID, 1)})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)
		ctx.SetParamNames("taskID")
		ctx.SetParamValues("not-a-uuid")

		err := controller.Read(ctx)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, 400, httpError.Code)
	})
}

func TestTaskControllerListCorrelations(t *testing.T) {
	e := echo.New()

	t.Run("should decode the stored similarity scores", func(t *testing.T) {
		scores, _ := json.Marshal(dtos.SimilarityScores{
			"SBERT": {{CAPECID: "CAPEC-66", FinalScore: 0.8, Rank: 1}},
		})
		correlationRepository := &fakeCorrelationRepository{
			correlations: []models.SingleCorrelation{
				{
					CVEID:            "CVE-2021-44228",
					Status:           models.CorrelationStatusComplete,
					SimilarityScores: scores,
				},
			},
		}
		controller := newTestController(newFakeTaskRepository(), correlationRepository, &fakeTaskService{started: make(chan uuid.UUID, 1)})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)
		ctx.SetParamNames("taskID")
		ctx.SetParamValues(uuid.NewString())

		err := controller.ListCorrelations(ctx)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var dtoList []dtos.CorrelationDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dtoList))
		require.Len(t, dtoList, 1)
		assert.Equal(t, "CVE-2021-44228", dtoList[0].CVEID)
		assert.Equal(t, 1, dtoList[0].SimilarityScores["SBERT"][0].Rank)
	})

	t.Run("should filter by the cveList query param", func(t *testing.T) {
		correlationRepository := &fakeCorrelationRepository{
			correlations: []models.SingleCorrelation{
				{CVEID: "CVE-2021-44228", Status: models.CorrelationStatusComplete},
				{CVEID: "CVE-2014-0160", Status: models.CorrelationStatusComplete},
				{CVEID: "CVE-2017-5638", Status: models.CorrelationStatusFailed},
			},
		}
		controller := newTestController(newFakeTaskRepository(), correlationRepository, &fakeTaskService{started: make(chan uuid.UUID, 1)})

		req := httptest.NewRequest(http.MethodGet, "/?cveList=CVE-2014-0160,%20CVE-2017-5638,not-a-cve", nil)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)
		ctx.SetParamNames("taskID")
		ctx.SetParamValues(uuid.NewString())

		err := controller.ListCorrelations(ctx)

		require.NoError(t, err)

		var dtoList []dtos.CorrelationDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dtoList))
		require.Len(t, dtoList, 2)
		assert.Equal(t, "CVE-2014-0160", dtoList[0].CVEID)
		assert.Equal(t, "CVE-2017-5638", dtoList[1].CVEID)
	})
}
