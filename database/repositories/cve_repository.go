package repositories

import (
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/shared"
	"gorm.io/gorm"
)

type cveRepository struct {
	db *gorm.DB
	shared.Repository[string, models.CVE, *gorm.DB]
}

func NewCVERepository(db *gorm.DB) *cveRepository {
	return &cveRepository{
		db:         db,
		Repository: newGormRepository[string, models.CVE](db),
	}
}

func (g *cveRepository) FindAllListByID(ids []string) ([]models.CVE, error) {
	if len(ids) == 0 {
		return []models.CVE{}, nil
	}
	var cves []models.CVE
	err := g.db.Where("cve IN ?", ids).Find(&cves).Error
	return cves, err
}
