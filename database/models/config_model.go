package models

// Config is a simple key/value store for runtime bookkeeping, e.g. the
// last vulndb mirror timestamps.
type Config struct {
	Key string `gorm:"primarykey"`
	Val string `gorm:"type:text"`
}

func (Config) TableName() string {
	return "config"
}
