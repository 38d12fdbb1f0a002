package similarity

import (
	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/shared"
)

const (
	ModelSBERTHyb      = "SBERT Hyb"
	ModelATTACKBERTHyb = "ATTACKBERT Hyb"
)

// SupportedModels lists the model identifiers tasks may request.
var SupportedModels = []string{ModelSBERTHyb, ModelATTACKBERTHyb}

// NewComparatorFactory maps a task's model identifier to a comparator
// backed by the configured inference server.
func NewComparatorFactory(serverURL, apiToken string) shared.ComparatorFactory {
	return func(aiModel string) (shared.Comparator, error) {
		switch aiModel {
		case ModelSBERTHyb:
			return NewEmbeddingComparator("SBERT", "sentence-transformers/all-MiniLM-L6-v2", serverURL, apiToken)
		case ModelATTACKBERTHyb:
			return NewEmbeddingComparator("ATTACKBERT", "basel/ATTACK-BERT", serverURL, apiToken)
		}
		return nil, errors.Errorf("unsupported ai model: %s", aiModel)
	}
}
