package services

import (
	"encoding/json"

	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/database/repositories"
	"github.com/threatlinker/threatlinker/shared"
)

// ConfigService persists small JSON documents in the config table, keyed
// by dotted names like "vulndb.capec.lastMirror". The vulndb daemons use it to
// remember when a mirror last ran.
type ConfigService struct {
	repository shared.ConfigRepository
}

func NewConfigService(db shared.DB) ConfigService {
	repository := repositories.NewConfigRepository(db)
	return ConfigService{
		repository: repository,
	}
}

// GetJSONConfig unmarshals the stored value for key into v. A missing key
// surfaces as gorm.ErrRecordNotFound, which callers treat as "never ran".
func (service ConfigService) GetJSONConfig(key string, v any) error {
	var config models.Config
	if err := service.repository.GetDB(nil).Where("key = ?", key).First(&config).Error; err != nil {
		return err
	}

	return json.Unmarshal([]byte(config.Val), v)
}

// SetJSONConfig marshals v and upserts it under key.
func (service ConfigService) SetJSONConfig(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	config := models.Config{
		Key: key,
		Val: string(b),
	}

	return service.repository.Save(nil, &config)
}
