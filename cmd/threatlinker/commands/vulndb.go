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

	"github.com/spf13/cobra"
	"github.com/threatlinker/threatlinker/database/repositories"
	"github.com/threatlinker/threatlinker/vulndb"
)

func NewVulndbCommand() *cobra.Command {
	vulndbCmd := cobra.Command{
		Use:   "vulndb",
		Short: "Manage the local vulnerability database",
		Long:  "Commands for mirroring the CAPEC catalog and importing CVEs from the NVD.",
	}

	vulndbCmd.AddCommand(newMirrorCommand())
	vulndbCmd.AddCommand(newImportCVECommand())
	return &vulndbCmd
}

func newMirrorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Download the CAPEC catalog and store it locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := databaseFactory()
			if err != nil {
				return err
			}

			capecService := vulndb.NewCapecService(repositories.NewCAPECRepository(db))
			return capecService.Mirror(cmd.Context())
		},
	}
}

func newImportCVECommand() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import the given CVE ids from the NVD",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := databaseFactory()
			if err != nil {
				return err
			}

			nvdService := vulndb.NewNVDService(repositories.NewCVERepository(db))
			cves, err := nvdService.EnsureCVEs(args)
			if err != nil {
				return err
			}
			slog.Info("imported cves", "requested", len(args), "available", len(cves))
			return nil
		},
	}
	return importCmd
}
