package repositories

import (
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/shared"
	"gorm.io/gorm"
)

type configRepository struct {
	db *gorm.DB
	shared.Repository[string, models.Config, *gorm.DB]
}

func NewConfigRepository(db *gorm.DB) *configRepository {
	return &configRepository{
		db:         db,
		Repository: newGormRepository[string, models.Config](db),
	}
}
