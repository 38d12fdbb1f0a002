package daemons

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/shared"
	"github.com/threatlinker/threatlinker/vulndb"
	"gorm.io/gorm"
)

type DaemonRunner struct {
	configService shared.ConfigService
	capecService  vulndb.CapecService
}

func NewDaemonRunner(configService shared.ConfigService, capecService vulndb.CapecService) DaemonRunner {
	return DaemonRunner{
		configService: configService,
		capecService:  capecService,
	}
}

// Start runs the daemon loop until the context gets canceled. The first
// run happens immediately.
func (runner DaemonRunner) Start(ctx context.Context) {
	if err := runner.UpdateVulnDB(ctx); err != nil {
		slog.Error("vulndb update failed", "err", err)
	}

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := runner.UpdateVulnDB(ctx); err != nil {
				slog.Error("vulndb update failed", "err", err)
			}
		}
	}
}

func getLastMirrorTime(configService shared.ConfigService, key string) (time.Time, error) {
	var lastMirror struct {
		Time time.Time `json:"time"`
	}

	err := configService.GetJSONConfig(key, &lastMirror)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("could not get last mirror time", "err", err, "key", key)
		return time.Time{}, err
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Info("no last mirror time found. Setting to 0", "key", key)
		return time.Time{}, nil
	}

	return lastMirror.Time, nil
}

func shouldMirror(configService shared.ConfigService, key string) bool {
	lastTime, err := getLastMirrorTime(configService, key)
	if err != nil {
		return false
	}

	return time.Since(lastTime) > 12*time.Hour
}

func markMirrored(configService shared.ConfigService, key string) error {
	return configService.SetJSONConfig(key, struct {
		Time time.Time `json:"time"`
	}{
		Time: time.Now(),
	})
}
