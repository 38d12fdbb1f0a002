package similarity

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/normalize"
)

const (
	// an exact phrase hit is worth the full keyword score
	keywordMaxScore = 0.3
	// partial hits share a smaller budget across the keyword's tokens
	keywordPartialMaxScore = 0.2
)

// KeywordScorer computes the lexical similarity between an alternate term
// and a CVE description. Both sides get canonicalized (acronyms, stopwords,
// stemming) before matching, so "URL Encoding" still hits a description
// talking about "encoded URLs".
type KeywordScorer struct {
	processor *normalize.TextProcessor
	resolver  *normalize.AcronymResolver
}

func NewKeywordScorer() (*KeywordScorer, error) {
	processor, err := normalize.NewTextProcessor(normalize.Options{
		RemoveStopwords: true,
		Stem:            true,
		Lemmatize:       true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create text processor")
	}
	resolver, err := normalize.NewAcronymResolver()
	if err != nil {
		return nil, errors.Wrap(err, "could not create acronym resolver")
	}
	return &KeywordScorer{
		processor: processor,
		resolver:  resolver,
	}, nil
}

func (s *KeywordScorer) Score(keyword, text string) float64 {
	keyword = uniformString(keyword)
	text = uniformString(text)

	keyword = s.resolver.Resolve(keyword)
	text = s.resolver.Resolve(text)

	keyword = s.processor.Process(keyword)
	text = s.processor.Process(text)

	if keyword == "" {
		return 0
	}

	if strings.Contains(strings.ToLower(text), strings.ToLower(keyword)) {
		return keywordMaxScore
	}
	return partialMatch(keyword, text)
}

// partialMatch distributes keywordPartialMaxScore evenly over the keyword's
// tokens and awards the share of every token found in the text.
func partialMatch(keyword, text string) float64 {
	searchTokens := strings.Fields(strings.ToLower(keyword))
	if len(searchTokens) == 0 {
		return 0
	}

	targetTokens := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(text)) {
		targetTokens[token] = struct{}{}
	}

	found := 0
	for _, token := range searchTokens {
		if _, ok := targetTokens[token]; ok {
			found++
		}
	}
	return keywordPartialMaxScore / float64(len(searchTokens)) * float64(found)
}

// uniformString lowercases the input and replaces separator punctuation
// with spaces. Periods survive only next to a digit ("7.54", "5.x"),
// everything else becomes a space.
func uniformString(text string) string {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	for i, r := range runes {
		switch r {
		case '_', '-', '/', '(', ')', ',', ';':
			out = append(out, ' ')
		case '.':
			if periodIsSeparator(runes, i) {
				out = append(out, ' ')
			} else {
				out = append(out, r)
			}
		default:
			out = append(out, r)
		}
	}
	lowered := strings.ToLower(string(out))
	return strings.Join(strings.Fields(lowered), " ")
}

func periodIsSeparator(runes []rune, i int) bool {
	prevWord := i > 0 && isWordRune(runes[i-1])
	prevDigit := i > 0 && unicode.IsDigit(runes[i-1])
	nextDigit := i+1 < len(runes) && unicode.IsDigit(runes[i+1])

	trailingWordRunes := 0
	for j := i + 1; j < len(runes) && trailingWordRunes < 2; j++ {
		if !isWordRune(runes[j]) {
			break
		}
		trailingWordRunes++
	}

	if !prevWord && trailingWordRunes < 2 {
		return true
	}
	if !prevDigit && !nextDigit {
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
