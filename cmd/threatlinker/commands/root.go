// Copyright (C) 2025 timbastin
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/threatlinker/threatlinker/database"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/shared"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "threatlinker",
	Short: "CVE to CAPEC correlation service",
	Long:  `Correlates CVE descriptions with CAPEC attack patterns using semantic and keyword similarity.`,
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}

// databaseFactory connects to postgres using the POSTGRES_* environment and
// runs the schema migration unless disabled.
func databaseFactory() (shared.DB, error) {
	db, err := database.NewConnection(os.Getenv("POSTGRES_HOST"), os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD"), os.Getenv("POSTGRES_DB"), os.Getenv("POSTGRES_PORT"))
	if err != nil {
		return nil, err
	}

	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		slog.Info("running database migrations...")
		if err := migrateDB(db); err != nil {
			return nil, err
		}
	} else {
		slog.Info("automatic migrations disabled via DISABLE_AUTOMIGRATE=true")
	}
	return db, nil
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CVE{},
		&models.CAPEC{},
		&models.ExecutionFlow{},
		&models.AttackStep{},
		&models.Task{},
		&models.SingleCorrelation{},
		&models.Config{},
	)
}
