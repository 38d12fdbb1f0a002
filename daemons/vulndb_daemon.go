package daemons

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/threatlinker/threatlinker/monitoring"
)

const capecMirrorKey = "vulndb.capec.lastMirror"

// UpdateVulnDB refreshes the CAPEC reference data at most every 12 hours.
// CVEs are imported on demand when a task references them.
func (runner DaemonRunner) UpdateVulnDB(ctx context.Context) error {
	begin := time.Now()
	defer func() {
		monitoring.VulnDBUpdateDuration.Observe(time.Since(begin).Minutes())
	}()
	if os.Getenv("DISABLE_VULNDB_UPDATE") == "true" {
		slog.Info("vulndb update disabled")
		return nil
	}

	if !shouldMirror(runner.configService, capecMirrorKey) {
		slog.Info("capec catalog is up to date")
		return nil
	}

	slog.Info("updating vulndb")
	if err := runner.capecService.Mirror(ctx); err != nil {
		slog.Error("failed to mirror capec catalog", "err", err)
		return err
	}
	return markMirrored(runner.configService, capecMirrorKey)
}
