package repositories

import (
	"github.com/google/uuid"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/shared"
	"gorm.io/gorm"
)

type taskRepository struct {
	db *gorm.DB
	shared.Repository[uuid.UUID, models.Task, *gorm.DB]
}

func NewTaskRepository(db *gorm.DB) *taskRepository {
	return &taskRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.Task](db),
	}
}

func (g *taskRepository) UpdateStatus(tx *gorm.DB, id uuid.UUID, status models.TaskStatus) error {
	return g.GetDB(tx).Model(&models.Task{}).Where("id = ?", id).Update("status", status).Error
}
