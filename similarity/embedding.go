package similarity

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/shared"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

type embeddingComparator struct {
	modelWord string
	embedder  embeddings.Embedder
}

// NewEmbeddingComparator builds a comparator backed by an OpenAI compatible
// inference server hosting the given embedding model. Local inference
// servers usually ignore the token, but the client requires one.
func NewEmbeddingComparator(modelWord, modelName, serverURL, apiToken string) (shared.Comparator, error) {
	if apiToken == "" {
		apiToken = "unset"
	}
	llm, err := openai.New(
		openai.WithBaseURL(serverURL),
		openai.WithToken(apiToken),
		openai.WithEmbeddingModel(modelName),
	)
	if err != nil {
		return nil, errors.Wrap(err, "could not create inference client")
	}
	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, errors.Wrap(err, "could not create embedder")
	}
	return &embeddingComparator{
		modelWord: modelWord,
		embedder:  embedder,
	}, nil
}

func (c *embeddingComparator) ModelWord() string {
	return c.modelWord
}

func (c *embeddingComparator) Encode(ctx context.Context, sentences []string) ([][]float32, error) {
	if len(sentences) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := c.embedder.EmbedDocuments(ctx, sentences)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode sentences")
	}
	if len(vectors) != len(sentences) {
		return nil, errors.Errorf("expected %d embeddings, got %d", len(sentences), len(vectors))
	}
	return vectors, nil
}

func (c *embeddingComparator) CompareSentences(ctx context.Context, a, b string) (float64, error) {
	vectors, err := c.Encode(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	return CosineSimilarity(vectors[0], vectors[1]), nil
}

func (c *embeddingComparator) CompareWithListInOrder(ctx context.Context, sentence string, sentenceList []string) ([]float64, error) {
	if len(sentenceList) == 0 {
		return []float64{}, nil
	}
	// a single batched call, the reference sentence goes first
	vectors, err := c.Encode(ctx, append([]string{sentence}, sentenceList...))
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(sentenceList))
	for i := range sentenceList {
		scores[i] = CosineSimilarity(vectors[0], vectors[i+1])
	}
	return scores, nil
}

// CosineSimilarity returns 0 for zero vectors instead of NaN.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
