package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/database"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/monitoring"
	"github.com/threatlinker/threatlinker/shared"
	"gorm.io/datatypes"
)

type workerService struct {
	taskRepository        shared.TaskRepository
	cveRepository         shared.CveRepository
	correlationRepository shared.CorrelationRepository
	correlationService    shared.CorrelationService
	comparatorFactory     shared.ComparatorFactory
}

func NewWorkerService(taskRepository shared.TaskRepository, cveRepository shared.CveRepository, correlationRepository shared.CorrelationRepository, correlationService shared.CorrelationService, comparatorFactory shared.ComparatorFactory) *workerService {
	return &workerService{
		taskRepository:        taskRepository,
		cveRepository:         cveRepository,
		correlationRepository: correlationRepository,
		correlationService:    correlationService,
		comparatorFactory:     comparatorFactory,
	}
}

// ProcessSubgroup correlates one disjoint slice of a task's CVEs. The
// comparator gets resolved once per subgroup. A failure of a single CVE is
// recorded and the loop continues; only infrastructure errors (task or CVE
// loading, failure bookkeeping) abort the whole subgroup.
func (s *workerService) ProcessSubgroup(ctx context.Context, cveIDs []string, taskID uuid.UUID) error {
	begin := time.Now()
	defer func() {
		monitoring.SubgroupDuration.Observe(time.Since(begin).Minutes())
	}()

	task, err := s.taskRepository.Read(taskID)
	if err != nil {
		return errors.Wrapf(err, "could not load task %s", taskID)
	}

	comparator, err := s.comparatorFactory(task.AIModel)
	if err != nil {
		return errors.Wrap(err, "could not create comparator")
	}

	cves, err := s.cveRepository.FindAllListByID(cveIDs)
	if err != nil {
		return errors.Wrap(err, "could not load cves")
	}
	if len(cves) < len(cveIDs) {
		slog.Warn("some cves of the subgroup are not in the database", "task", taskID.String(), "requested", len(cveIDs), "found", len(cves))
	}

	for _, cve := range cves {
		if err := s.processSingleCVE(ctx, cve, taskID, comparator); err != nil {
			monitoring.SingleCVEFailures.Inc()
			slog.Error("could not correlate cve", "cve", cve.CVE, "summary", cve.GetSummary(), "task", taskID.String(), "err", err)
			if recordErr := s.recordFailure(taskID, cve.CVE); recordErr != nil {
				return errors.Wrapf(recordErr, "could not record failed correlation for %s", cve.CVE)
			}
		}
	}
	return nil
}

// processSingleCVE converts panics of the scoring pipeline into per-CVE
// errors so a single poisoned CVE cannot take the subgroup down.
func (s *workerService) processSingleCVE(ctx context.Context, cve models.CVE, taskID uuid.UUID, comparator shared.Comparator) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("recovered panic while correlating %s: %v", cve.CVE, r)
		}
	}()

	begin := time.Now()
	if err = s.correlationService.ProcessSingleCVE(ctx, cve, taskID, comparator); err != nil {
		return err
	}
	monitoring.SingleCVEDuration.Observe(time.Since(begin).Seconds())
	return nil
}

func (s *workerService) recordFailure(taskID uuid.UUID, cveID string) error {
	correlation := models.SingleCorrelation{
		TaskID:           taskID,
		CVEID:            cveID,
		Status:           models.CorrelationStatusFailed,
		SimilarityScores: datatypes.JSON([]byte("{}")),
	}
	err := s.correlationRepository.Create(nil, &correlation)
	// the (task_id, cve_id) unique constraint fires when a correlation for
	// this cve already exists; that record wins, nothing left to do
	if err != nil && database.IsDuplicateKeyError(err) {
		slog.Warn("correlation for cve already recorded", "cve", cveID, "task", taskID.String())
		return nil
	}
	return err
}
