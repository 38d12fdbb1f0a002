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

package services

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/dtos"
	"github.com/threatlinker/threatlinker/normalize"
	"github.com/threatlinker/threatlinker/shared"
	"github.com/threatlinker/threatlinker/similarity"
	"gorm.io/datatypes"
)

type correlationService struct {
	capecRepository       shared.CapecRepository
	correlationRepository shared.CorrelationRepository

	processor     *normalize.TextProcessor
	keywordScorer *similarity.KeywordScorer
}

func NewCorrelationService(capecRepository shared.CapecRepository, correlationRepository shared.CorrelationRepository) (*correlationService, error) {
	processor, err := normalize.NewTextProcessor(normalize.DefaultOptions())
	if err != nil {
		return nil, err
	}
	keywordScorer, err := similarity.NewKeywordScorer()
	if err != nil {
		return nil, err
	}
	return &correlationService{
		capecRepository:       capecRepository,
		correlationRepository: correlationRepository,
		processor:             processor,
		keywordScorer:         keywordScorer,
	}, nil
}

// ProcessSingleCVE scores one CVE against the whole active CAPEC catalog
// and persists the resulting SingleCorrelation. The result holds two ranked
// lists: the semantic one under the comparator's model word and the keyword
// boosted one under "<model word>_keyword".
func (s *correlationService) ProcessSingleCVE(ctx context.Context, cve models.CVE, taskID uuid.UUID, comparator shared.Comparator) error {
	capecs, err := s.capecRepository.AllActive()
	if err != nil {
		return errors.Wrap(err, "could not load the capec catalog")
	}

	description := s.processor.Process(cve.Description)

	semanticScores, err := s.semanticScores(ctx, description, capecs, comparator)
	if err != nil {
		return errors.Wrapf(err, "could not compute semantic scores for %s", cve.CVE)
	}

	keywordScores := s.keywordScores(description, capecs)

	results := integrateKeywordScores(comparator.ModelWord(), semanticScores, keywordScores)

	scoresJSON, err := json.Marshal(results)
	if err != nil {
		return errors.Wrap(err, "could not marshal similarity scores")
	}

	correlation := models.SingleCorrelation{
		TaskID:           taskID,
		CVEID:            cve.CVE,
		Status:           models.CorrelationStatusComplete,
		SimilarityScores: datatypes.JSON(scoresJSON),
	}
	if err := s.correlationRepository.Create(nil, &correlation); err != nil {
		return errors.Wrapf(err, "could not persist correlation for %s", cve.CVE)
	}
	return nil
}

func (s *correlationService) semanticScores(ctx context.Context, description string, capecs []models.CAPEC, comparator shared.Comparator) ([]dtos.CapecScore, error) {
	scores := make([]dtos.CapecScore, 0, len(capecs))
	for _, capec := range capecs {
		fieldNames, fieldTexts := s.aggregateFields(capec)

		fieldScores := make(map[string]float64, len(fieldNames)+1)
		similarities, err := comparator.CompareWithListInOrder(ctx, description, fieldTexts)
		if err != nil {
			return nil, errors.Wrapf(err, "could not compare against capec %s", capec.CAPEC)
		}
		for i, score := range similarities {
			fieldScores[fieldNames[i]+"_score"] = round3(score)
		}

		flowScore, hasFlow, err := s.executionFlowScore(ctx, description, capec, comparator)
		if err != nil {
			return nil, errors.Wrapf(err, "could not score execution flow of capec %s", capec.CAPEC)
		}
		// a capec without a flow gets no execution_flow_score component at all
		if hasFlow && flowScore != 0 {
			fieldScores["execution_flow_score"] = flowScore
		}

		for field, score := range fieldScores {
			if score < 0 {
				fieldScores[field] = 0
			}
		}

		var finalScore float64
		if len(fieldScores) > 0 {
			var sum float64
			for _, score := range fieldScores {
				sum += score
			}
			finalScore = round3(sum / float64(len(fieldScores)))
		}

		scores = append(scores, dtos.CapecScore{
			CAPECID:     capec.CAPEC,
			FieldScores: fieldScores,
			FinalScore:  finalScore,
		})
	}
	rankCapecs(scores)
	return scores, nil
}

// aggregateFields returns the non-empty aggregated free-text fields of a
// capec in a fixed order, already normalized. The two return slices are
// index-aligned.
func (s *correlationService) aggregateFields(capec models.CAPEC) ([]string, []string) {
	type field struct {
		name string
		text string
	}
	candidates := []field{
		{"name", capec.Name},
		{"description", capec.DescriptionAggregated},
		{"prerequisites", capec.PrerequisitesAggregated},
		{"resources_required", capec.ResourcesRequiredAggregated},
		{"mitigations", capec.MitigationsAggregated},
		{"skills_required", capec.SkillsRequiredAggregated},
		{"extended_description", capec.ExtendedDescriptionAggregated},
		{"indicators", capec.IndicatorsAggregated},
	}

	names := make([]string, 0, len(candidates))
	texts := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.text == "" {
			continue
		}
		names = append(names, candidate.name)
		texts = append(texts, s.processor.Process(candidate.text))
	}
	return names, texts
}

// executionFlowScore batches description and techniques of every valid
// attack step into a single comparator call and averages the per-step
// maximum. The bool reports whether the capec had any scoreable step.
func (s *correlationService) executionFlowScore(ctx context.Context, description string, capec models.CAPEC, comparator shared.Comparator) (float64, bool, error) {
	if capec.ExecutionFlow == nil {
		return 0, false, nil
	}

	var descriptionTexts, techniqueTexts []string
	// per valid step: index into the respective text slice, -1 when absent
	var descriptionIndex, techniqueIndex []int
	for _, step := range capec.ExecutionFlow.AttackSteps {
		hasDescription := step.DescriptionAggregated != ""
		hasTechniques := step.TechniquesAggregated != ""
		if !hasDescription && !hasTechniques {
			continue
		}
		if hasDescription {
			descriptionIndex = append(descriptionIndex, len(descriptionTexts))
			descriptionTexts = append(descriptionTexts, s.processor.Process(step.DescriptionAggregated))
		} else {
			descriptionIndex = append(descriptionIndex, -1)
		}
		if hasTechniques {
			techniqueIndex = append(techniqueIndex, len(techniqueTexts))
			techniqueTexts = append(techniqueTexts, s.processor.Process(step.TechniquesAggregated))
		} else {
			techniqueIndex = append(techniqueIndex, -1)
		}
	}

	validSteps := len(descriptionIndex)
	if validSteps == 0 {
		return 0, false, nil
	}

	combined := make([]string, 0, len(descriptionTexts)+len(techniqueTexts))
	combined = append(combined, descriptionTexts...)
	combined = append(combined, techniqueTexts...)

	scores, err := comparator.CompareWithListInOrder(ctx, description, combined)
	if err != nil {
		return 0, false, err
	}

	var total float64
	for i := 0; i < validSteps; i++ {
		var descriptionScore, techniquesScore float64
		if descriptionIndex[i] >= 0 {
			descriptionScore = scores[descriptionIndex[i]]
		}
		if techniqueIndex[i] >= 0 {
			techniquesScore = scores[len(descriptionTexts)+techniqueIndex[i]]
		}
		total += math.Max(descriptionScore, techniquesScore)
	}
	return total / float64(validSteps), true, nil
}

// keywordScores computes the lexical score per capec: the maximum keyword
// similarity of the capec name and every alternate term against the
// normalized CVE description.
func (s *correlationService) keywordScores(description string, capecs []models.CAPEC) map[string]float64 {
	scores := make(map[string]float64, len(capecs))
	for _, capec := range capecs {
		var score float64
		if capec.Name != "" {
			score = math.Max(score, s.keywordScorer.Score(capec.Name, description))
		}
		for _, term := range capec.AlternateTerms {
			score = math.Max(score, s.keywordScorer.Score(term, description))
		}
		scores[capec.CAPEC] = round3(score)
	}
	return scores
}

// integrateKeywordScores adds the "<model>_keyword" result set: the semantic
// final score plus the capec's keyword score, re-ranked.
func integrateKeywordScores(modelWord string, semanticScores []dtos.CapecScore, keywordScores map[string]float64) dtos.SimilarityScores {
	boosted := make([]dtos.CapecScore, len(semanticScores))
	for i, score := range semanticScores {
		fieldScores := make(map[string]float64, len(score.FieldScores)+1)
		for field, value := range score.FieldScores {
			fieldScores[field] = value
		}
		fieldScores["keyword_score"] = keywordScores[score.CAPECID]
		boosted[i] = dtos.CapecScore{
			CAPECID:     score.CAPECID,
			FieldScores: fieldScores,
			FinalScore:  round3(score.FinalScore + keywordScores[score.CAPECID]),
		}
	}
	rankCapecs(boosted)

	return dtos.SimilarityScores{
		modelWord:              semanticScores,
		modelWord + "_keyword": boosted,
	}
}

// rankCapecs sorts by final score descending and assigns ranks starting at
// 1. The sort is stable, ties keep the deterministic catalog order.
func rankCapecs(scores []dtos.CapecScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].FinalScore > scores[j].FinalScore
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
