package dtos

// CapecScore is one ranked entry of a correlation result set. FieldScores
// holds the per-field component scores ("name_score", "description_score",
// "execution_flow_score", ...); fields the CAPEC does not populate are
// absent, not zero.
type CapecScore struct {
	CAPECID     string             `json:"capecId"`
	FieldScores map[string]float64 `json:"fieldScores"`
	FinalScore  float64            `json:"finalScore"`
	Rank        int                `json:"rank"`
}

// SimilarityScores maps a model name ("SBERT", "SBERT_keyword", ...) to its
// ranked CAPEC list, rank ascending.
type SimilarityScores map[string][]CapecScore
