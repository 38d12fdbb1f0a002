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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/shared"
)

var nvdBaseURL = url.URL{
	Scheme: "https",
	Host:   "services.nvd.nist.gov",
	Path:   "/rest/json/cves/2.0",
}

const (
	nvdMaxTries       = 10
	nvdRateLimitDelay = 5 * time.Second
)

type NVDService struct {
	httpClient    *http.Client
	cveRepository shared.CveRepository
	lock          *sync.Mutex
}

func NewNVDService(cveRepository shared.CveRepository) NVDService {
	return NVDService{
		cveRepository: cveRepository,
		lock:          &sync.Mutex{},
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 3, // only allow 3 concurrent connections to the same host
			},
		},
	}
}

// ImportCVE fetches a single CVE from the NVD and upserts it.
func (nvdService NVDService) ImportCVE(cveID string) (models.CVE, error) {
	// make a copy of the base url
	u := nvdBaseURL
	q := u.Query()
	q.Add("cveId", cveID)
	u.RawQuery = q.Encode()

	resp, err := nvdService.fetchJSONFromNVD(u, 1)
	if err != nil {
		slog.Error("could not fetch from nvd", "cve", cveID, "err", err)
		return models.CVE{}, err
	}

	if len(resp.Vulnerabilities) == 0 {
		return models.CVE{}, fmt.Errorf("could not find CVE with id %s", cveID)
	}

	cve := fromNVDCVE(resp.Vulnerabilities[0].Cve)
	if err := nvdService.cveRepository.Save(nil, &cve); err != nil {
		return models.CVE{}, errors.Wrapf(err, "could not save cve %s", cveID)
	}
	return cve, nil
}

// EnsureCVEs makes sure every requested CVE exists locally, importing the
// missing ones from the NVD. Lookup failures are logged and skipped; the
// completion tracker will surface CVEs which never made it into the
// database.
func (nvdService NVDService) EnsureCVEs(cveIDs []string) ([]models.CVE, error) {
	existing, err := nvdService.cveRepository.FindAllListByID(cveIDs)
	if err != nil {
		return nil, errors.Wrap(err, "could not load existing cves")
	}

	existingIDs := make(map[string]struct{}, len(existing))
	for _, cve := range existing {
		existingIDs[cve.CVE] = struct{}{}
	}

	for _, cveID := range cveIDs {
		if _, ok := existingIDs[cveID]; ok {
			continue
		}
		cve, err := nvdService.ImportCVE(cveID)
		if err != nil {
			slog.Warn("could not import cve from nvd", "cve", cveID, "err", err)
			continue
		}
		existing = append(existing, cve)
		existingIDs[cveID] = struct{}{}
	}
	return existing, nil
}

// this method will retry before returning an error
func (nvdService NVDService) fetchJSONFromNVD(u url.URL, currentTry int) (nistResponse, error) {
	// limit to a single request all 6 seconds max
	nvdService.lock.Lock()
	time.AfterFunc(6*time.Second, func() {
		nvdService.lock.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nistResponse{}, errors.Wrap(err, "could not create request before fetching from nvd")
	}

	res, err := nvdService.httpClient.Do(req)
	if err != nil {
		if currentTry < nvdMaxTries {
			slog.Error("could not fetch from nvd", "try", currentTry, "err", err)
			return nvdService.fetchJSONFromNVD(u, currentTry+1)
		}
		return nistResponse{}, errors.Wrap(err, "could not fetch from nvd")
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		if currentTry < nvdMaxTries {
			slog.Warn("nvd rate limit exceeded, waiting before retrying", "try", currentTry)
			time.Sleep(nvdRateLimitDelay)
			return nvdService.fetchJSONFromNVD(u, currentTry+1)
		}
		return nistResponse{}, fmt.Errorf("nvd rate limit exceeded after %d tries", currentTry)
	}
	if res.StatusCode != http.StatusOK {
		if currentTry < nvdMaxTries {
			slog.Error("could not fetch from nvd", "try", currentTry, "statusCode", res.StatusCode)
			return nvdService.fetchJSONFromNVD(u, currentTry+1)
		}
		return nistResponse{}, fmt.Errorf("could not fetch from nvd. Status code: %d", res.StatusCode)
	}

	var resp nistResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		if currentTry < nvdMaxTries {
			slog.Info("could not decode response from nvd, retrying", "try", currentTry, "err", err)
			return nvdService.fetchJSONFromNVD(u, currentTry+1)
		}
		return nistResponse{}, errors.Wrap(err, "could not decode response from nvd")
	}
	return resp, nil
}
