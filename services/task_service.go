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

package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/dtos"
	"github.com/threatlinker/threatlinker/monitoring"
	"github.com/threatlinker/threatlinker/shared"
	"github.com/threatlinker/threatlinker/utils"
)

const callbackTopCapecCount = 10

type taskService struct {
	taskRepository        shared.TaskRepository
	correlationRepository shared.CorrelationRepository
	workerService         shared.WorkerService
	callbackClient        shared.CallbackClient
	workerCount           int
}

func NewTaskService(taskRepository shared.TaskRepository, correlationRepository shared.CorrelationRepository, workerService shared.WorkerService, callbackClient shared.CallbackClient, workerCount int) *taskService {
	if workerCount < 1 {
		workerCount = 1
	}
	return &taskService{
		taskRepository:        taskRepository,
		correlationRepository: correlationRepository,
		workerService:         workerService,
		callbackClient:        callbackClient,
		workerCount:           workerCount,
	}
}

// StartCorrelationTask fans the task's CVE list out over balanced
// subgroups, waits for every worker to return and finalizes the task. A
// subgroup error does not fail the task, the completion check decides the
// final status.
func (s *taskService) StartCorrelationTask(ctx context.Context, taskID uuid.UUID) error {
	monitoring.CorrelationTaskAmount.Inc()

	task, err := s.taskRepository.Read(taskID)
	if err != nil {
		return errors.Wrapf(err, "could not load task %s", taskID)
	}

	cveIDs := []string(task.CVEHosts)
	if len(cveIDs) == 0 {
		if err := s.taskRepository.UpdateStatus(nil, taskID, models.TaskStatusFailed); err != nil {
			slog.Error("could not mark empty task as failed", "task", taskID.String(), "err", err)
		}
		return errors.Errorf("task %s has no cves to correlate", taskID)
	}

	if err := s.taskRepository.UpdateStatus(nil, taskID, models.TaskStatusInProgress); err != nil {
		return errors.Wrapf(err, "could not mark task %s as in progress", taskID)
	}

	subgroups := utils.SplitBalanced(cveIDs, s.workerCount)
	slog.Info("dispatching correlation task", "task", taskID.String(), "cves", len(cveIDs), "subgroups", len(subgroups))

	group := utils.ErrGroup[struct{}](s.workerCount)
	for _, subgroup := range subgroups {
		group.Go(func() (struct{}, error) {
			return struct{}{}, s.workerService.ProcessSubgroup(ctx, subgroup, taskID)
		})
	}
	if _, err := group.WaitAndCollect(); err != nil {
		slog.Error("subgroup processing failed", "task", taskID.String(), "err", err)
	}

	return s.FinalizeTask(ctx, taskID)
}

// FinalizeTask recomputes task completion from the persisted correlation
// records: the task is complete exactly when the set of complete
// correlation CVE ids equals the task's CVE set. An incomplete task goes
// back to in_progress. Only a finalization bookkeeping error marks the
// task failed.
func (s *taskService) FinalizeTask(ctx context.Context, taskID uuid.UUID) error {
	task, err := s.taskRepository.Read(taskID)
	if err != nil {
		return s.markFailed(taskID, errors.Wrap(err, "could not load task"))
	}

	completedIDs, err := s.correlationRepository.CompletedCVEIDs(taskID)
	if err != nil {
		return s.markFailed(taskID, errors.Wrap(err, "could not load completed correlations"))
	}

	if !sameStringSet(completedIDs, task.CVEHosts) {
		if err := s.taskRepository.UpdateStatus(nil, taskID, models.TaskStatusInProgress); err != nil {
			return s.markFailed(taskID, errors.Wrap(err, "could not mark task as in progress"))
		}
		slog.Info("task is still in progress", "task", taskID.String(), "completed", len(completedIDs), "expected", len(task.CVEHosts))
		return nil
	}

	if task.CallbackURL != nil && *task.CallbackURL != "" {
		payload, err := s.buildCallbackPayload(task)
		if err != nil {
			return s.markFailed(taskID, errors.Wrap(err, "could not build callback payload"))
		}
		if err := s.callbackClient.SendCompletion(ctx, *task.CallbackURL, payload); err != nil {
			// the task stays in_progress, a finalization retry will send
			// the callback again
			monitoring.CallbackFailures.Inc()
			return errors.Wrapf(err, "could not deliver completion callback for task %s", taskID)
		}
	}

	if err := s.taskRepository.UpdateStatus(nil, taskID, models.TaskStatusComplete); err != nil {
		return s.markFailed(taskID, errors.Wrap(err, "could not mark task as complete"))
	}
	monitoring.CorrelationTaskSuccess.Inc()
	slog.Info("task complete", "task", taskID.String(), "cves", len(task.CVEHosts))
	return nil
}

func (s *taskService) markFailed(taskID uuid.UUID, cause error) error {
	if err := s.taskRepository.UpdateStatus(nil, taskID, models.TaskStatusFailed); err != nil {
		slog.Error("could not mark task as failed", "task", taskID.String(), "err", err)
	}
	return cause
}

// buildCallbackPayload collects the top ranked capecs of the keyword
// boosted result set per complete correlation.
func (s *taskService) buildCallbackPayload(task models.Task) (dtos.CallbackPayload, error) {
	correlations, err := s.correlationRepository.FindByTaskID(task.ID)
	if err != nil {
		return dtos.CallbackPayload{}, err
	}

	resultKey := boostedResultKey(task.AIModel)
	results := make([]dtos.CallbackCVEResult, 0, len(correlations))
	for _, correlation := range correlations {
		if correlation.Status != models.CorrelationStatusComplete {
			continue
		}

		var scores dtos.SimilarityScores
		if err := json.Unmarshal(correlation.SimilarityScores, &scores); err != nil {
			return dtos.CallbackPayload{}, errors.Wrapf(err, "could not unmarshal scores of %s", correlation.CVEID)
		}

		capecScores := scores[resultKey]
		sort.SliceStable(capecScores, func(i, j int) bool {
			return capecScores[i].Rank < capecScores[j].Rank
		})
		if len(capecScores) > callbackTopCapecCount {
			capecScores = capecScores[:callbackTopCapecCount]
		}

		topCapecs := make([]dtos.CallbackTopCapec, 0, len(capecScores))
		for _, score := range capecScores {
			topCapecs = append(topCapecs, dtos.CallbackTopCapec{
				CAPECID:    score.CAPECID,
				Rank:       score.Rank,
				FinalScore: score.FinalScore,
			})
		}
		results = append(results, dtos.CallbackCVEResult{
			CVEID:     correlation.CVEID,
			TopCapecs: topCapecs,
		})
	}

	return dtos.CallbackPayload{
		TaskID:      task.ID,
		GeneratedAt: time.Now().UTC(),
		CVEResults:  results,
	}, nil
}

// boostedResultKey maps "SBERT Hyb" to "SBERT_keyword".
func boostedResultKey(aiModel string) string {
	modelWord := aiModel
	if fields := strings.Fields(aiModel); len(fields) > 0 {
		modelWord = fields[0]
	}
	return modelWord + "_keyword"
}

func sameStringSet(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for v := range setA {
		if _, ok := setB[v]; !ok {
			return false
		}
	}
	return true
}
