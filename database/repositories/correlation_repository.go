package repositories

import (
	"github.com/google/uuid"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/shared"
	"gorm.io/gorm"
)

type correlationRepository struct {
	db *gorm.DB
	shared.Repository[uuid.UUID, models.SingleCorrelation, *gorm.DB]
}

func NewCorrelationRepository(db *gorm.DB) *correlationRepository {
	return &correlationRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.SingleCorrelation](db),
	}
}

func (g *correlationRepository) FindByTaskID(taskID uuid.UUID) ([]models.SingleCorrelation, error) {
	var correlations []models.SingleCorrelation
	err := g.db.Where("task_id = ?", taskID).Order("cve_id asc").Find(&correlations).Error
	return correlations, err
}

func (g *correlationRepository) CompletedCVEIDs(taskID uuid.UUID) ([]string, error) {
	var cveIDs []string
	err := g.db.Model(&models.SingleCorrelation{}).
		Where("task_id = ? AND status = ?", taskID, models.CorrelationStatusComplete).
		Distinct().
		Pluck("cve_id", &cveIDs).
		Error
	return cveIDs, err
}
