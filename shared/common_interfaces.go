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

package shared

import (
	"context"

	"github.com/google/uuid"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/dtos"
	"github.com/threatlinker/threatlinker/utils"
)

type Repository[ID any, T utils.Tabler, Tx any] interface {
	All() ([]T, error)
	Create(tx Tx, t *T) error
	CreateBatch(tx Tx, ts []T) error
	Read(id ID) (T, error)
	Delete(tx Tx, id ID) error
	List(ids []ID) ([]T, error)
	Save(tx Tx, t *T) error
	SaveBatch(tx Tx, ts []T) error
	// SaveBatchBestEffort drops individual rows that violate constraints
	// instead of failing the whole batch.
	SaveBatchBestEffort(tx Tx, ts []T) error
	Transaction(fn func(tx Tx) error) error
	GetDB(tx Tx) Tx
}

type TaskRepository interface {
	Repository[uuid.UUID, models.Task, DB]
	UpdateStatus(tx DB, id uuid.UUID, status models.TaskStatus) error
}

type CorrelationRepository interface {
	Repository[uuid.UUID, models.SingleCorrelation, DB]
	FindByTaskID(taskID uuid.UUID) ([]models.SingleCorrelation, error)
	// CompletedCVEIDs returns the distinct CVE ids of the task's complete
	// correlation records.
	CompletedCVEIDs(taskID uuid.UUID) ([]string, error)
}

type CveRepository interface {
	Repository[string, models.CVE, DB]
	FindAllListByID(ids []string) ([]models.CVE, error)
}

type ConfigRepository interface {
	Repository[string, models.Config, DB]
}

type ConfigService interface {
	GetJSONConfig(key string, v any) error
	SetJSONConfig(key string, v any) error
}

type CapecRepository interface {
	Repository[string, models.CAPEC, DB]
	// AllActive returns every non-deprecated CAPEC with its execution flow
	// preloaded, in a deterministic order.
	AllActive() ([]models.CAPEC, error)
}

// Comparator is the semantic similarity capability. Implementations differ
// only in the embedding model they are backed by; a correlation task uses
// exactly one comparator for its entire run.
type Comparator interface {
	// ModelWord is the short result-set key, e.g. "SBERT".
	ModelWord() string
	Encode(ctx context.Context, sentences []string) ([][]float32, error)
	CompareSentences(ctx context.Context, a, b string) (float64, error)
	// CompareWithListInOrder returns one cosine similarity per candidate,
	// preserving candidate order.
	CompareWithListInOrder(ctx context.Context, sentence string, sentenceList []string) ([]float64, error)
}

// ComparatorFactory resolves a task's model identifier ("SBERT Hyb", ...)
// to a comparator instance. Construction may be expensive; callers hold on
// to the result for a whole subgroup.
type ComparatorFactory func(aiModel string) (Comparator, error)

type CorrelationService interface {
	ProcessSingleCVE(ctx context.Context, cve models.CVE, taskID uuid.UUID, comparator Comparator) error
}

type WorkerService interface {
	ProcessSubgroup(ctx context.Context, cveIDs []string, taskID uuid.UUID) error
}

type TaskService interface {
	StartCorrelationTask(ctx context.Context, taskID uuid.UUID) error
	FinalizeTask(ctx context.Context, taskID uuid.UUID) error
}

type CallbackClient interface {
	SendCompletion(ctx context.Context, url string, payload dtos.CallbackPayload) error
}
