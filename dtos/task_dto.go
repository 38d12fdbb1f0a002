// Copyright (C) 2023 Tim Bastin, l3montree GmbH
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

package dtos

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// identifier format plus a year range check: the regex alone would accept
// years far in the future.
var cveIDPattern = regexp.MustCompile(`^CVE-(1999|2\d{3})-\d{4,19}$`)

// ValidCVEID reports whether id matches the CVE identifier format with a
// year between 1999 and the current year.
func ValidCVEID(id string) bool {
	if !cveIDPattern.MatchString(id) {
		return false
	}
	year, err := strconv.Atoi(strings.Split(id, "-")[1])
	if err != nil {
		return false
	}
	return year >= 1999 && year <= time.Now().Year()
}

// ParseCVEList splits a comma separated CVE id string and keeps only valid
// identifiers.
func ParseCVEList(list string) []string {
	parts := strings.Split(list, ",")
	valid := make([]string, 0, len(parts))
	for _, part := range parts {
		id := strings.TrimSpace(part)
		if ValidCVEID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

type TaskCreateRequest struct {
	Name        string   `json:"name" validate:"required"`
	CVEList     []string `json:"cveList" validate:"required,min=1"`
	AIModel     string   `json:"aiModel" validate:"required,oneof='SBERT Hyb' 'ATTACKBERT Hyb'"`
	Notes       string   `json:"notes"`
	CallbackURL *string  `json:"callbackUrl" validate:"omitempty,url"`
}

// Validate runs the checks the validator tags cannot express: the per-entry
// CVE id format.
func (r TaskCreateRequest) Validate() error {
	for _, id := range r.CVEList {
		if !ValidCVEID(id) {
			return fmt.Errorf("invalid CVE id: %s", id)
		}
	}
	return nil
}

type TaskDTO struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	CVEList     []string  `json:"cveList"`
	AIModel     string    `json:"aiModel"`
	Notes       string    `json:"notes"`
	CallbackURL *string   `json:"callbackUrl"`
}

type CorrelationDTO struct {
	ID               uuid.UUID        `json:"id"`
	CVEID            string           `json:"cveId"`
	Status           string           `json:"status"`
	SimilarityScores SimilarityScores `json:"similarityScores"`
	CreatedAt        time.Time        `json:"createdAt"`
}
