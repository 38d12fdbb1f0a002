package repositories

import (
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/shared"
	"gorm.io/gorm"
)

type capecRepository struct {
	db *gorm.DB
	shared.Repository[string, models.CAPEC, *gorm.DB]
}

func NewCAPECRepository(db *gorm.DB) *capecRepository {
	return &capecRepository{
		db:         db,
		Repository: newGormRepository[string, models.CAPEC](db),
	}
}

// AllActive excludes deprecated patterns and orders by the numeric part of
// the CAPEC id. Ranking uses a stable tie-break on query order, so the
// order has to be reproducible across runs - incidental storage order is
// not good enough.
func (g *capecRepository) AllActive() ([]models.CAPEC, error) {
	var capecs []models.CAPEC
	err := g.db.
		Where("status != ?", models.CAPECStatusDeprecated).
		Preload("ExecutionFlow.AttackSteps", func(db *gorm.DB) *gorm.DB {
			return db.Order("attack_steps.order_index asc")
		}).
		Preload("ExecutionFlow").
		Order("CAST(SUBSTRING(capec FROM 7) AS INTEGER) asc").
		Find(&capecs).Error
	return capecs, err
}
