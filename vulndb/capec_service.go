// Copyright (C) 2024 Tim Bastin, l3montree GmbH
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
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package vulndb

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/shared"
	"github.com/threatlinker/threatlinker/utils"
)

const capecCatalogURL = "https://capec.mitre.org/data/xml/capec_latest.xml"

type CapecService struct {
	httpClient      *http.Client
	capecRepository shared.CapecRepository
	catalogURL      string
}

func NewCapecService(capecRepository shared.CapecRepository) CapecService {
	return CapecService{
		capecRepository: capecRepository,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		catalogURL: capecCatalogURL,
	}
}

// Mirror downloads the latest CAPEC catalog and upserts every attack
// pattern. Deprecated patterns are kept in the database; the correlation
// queries exclude them.
func (capecService CapecService) Mirror(ctx context.Context) error {
	begin := time.Now()

	catalog, err := capecService.fetchCatalog(ctx)
	if err != nil {
		return err
	}

	if catalog.Name != "CAPEC" {
		return fmt.Errorf("downloaded file is not a CAPEC catalog, got %q", catalog.Name)
	}

	capecs := utils.Map(catalog.AttackPatterns, capecAttackPattern.toModel)
	// a single malformed pattern must not lose the whole catalog
	if err := capecService.capecRepository.SaveBatchBestEffort(nil, capecs); err != nil {
		return errors.Wrap(err, "could not save capec catalog")
	}

	slog.Info("mirrored capec catalog", "version", catalog.Version, "date", catalog.Date, "patterns", len(capecs), "duration", time.Since(begin))
	return nil
}

func (capecService CapecService) fetchCatalog(ctx context.Context) (capecCatalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, capecService.catalogURL, nil)
	if err != nil {
		return capecCatalog{}, errors.Wrap(err, "could not create capec catalog request")
	}

	res, err := capecService.httpClient.Do(req)
	if err != nil {
		return capecCatalog{}, errors.Wrap(err, "could not download capec catalog")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return capecCatalog{}, fmt.Errorf("could not download capec catalog. Status code: %d", res.StatusCode)
	}

	var catalog capecCatalog
	if err := xml.NewDecoder(res.Body).Decode(&catalog); err != nil {
		return capecCatalog{}, errors.Wrap(err, "could not parse capec catalog")
	}
	return catalog, nil
}
