package normalize

import (
	_ "embed"
	"regexp"
	"strings"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/kljensen/snowball"
	"github.com/pkg/errors"
)

//go:embed stopwords_en.txt
var stopwordsRaw string

// Options selects which stages of the normalization pipeline run. The
// stages always execute in a fixed order: lowercase, special character
// removal, stopword removal, stemming, lemmatization.
type Options struct {
	Lowercase          bool
	RemoveSpecialChars bool
	RemoveStopwords    bool
	Stem               bool
	Lemmatize          bool
}

type TextProcessor struct {
	opts Options
}

var (
	resourceOnce sync.Once
	stopwordSet  map[string]struct{}
	lemmatizer   *golem.Lemmatizer
	resourceErr  error

	controlChars = regexp.MustCompile(`[\t\n\r]`)
	// the ascii punctuation range, matching what gets stripped before
	// tokenization
	punctuation = regexp.MustCompile("[!-/:-@\\[-`{-~]")
	whitespace  = regexp.MustCompile(`\s+`)
)

func loadResources() {
	stopwordSet = make(map[string]struct{})
	for _, line := range strings.Split(stopwordsRaw, "\n") {
		word := strings.TrimSpace(line)
		if word == "" {
			continue
		}
		stopwordSet[word] = struct{}{}
	}
	lemmatizer, resourceErr = golem.New(en.New())
}

// Init loads the embedded stopword list and the lemmatization dictionary.
// Safe to call from multiple goroutines, the work happens once per process.
func Init() error {
	resourceOnce.Do(loadResources)
	return errors.Wrap(resourceErr, "could not load lemmatization dictionary")
}

func NewTextProcessor(opts Options) (*TextProcessor, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return &TextProcessor{opts: opts}, nil
}

// DefaultOptions matches what the per-CVE scorer applies to descriptions and
// CAPEC fields before encoding.
func DefaultOptions() Options {
	return Options{
		Lowercase:          true,
		RemoveSpecialChars: true,
		RemoveStopwords:    true,
	}
}

func (p *TextProcessor) Process(text string) string {
	return p.ProcessCustom(text, p.opts)
}

// ProcessCustom runs the pipeline with a one-off option set, ignoring the
// construction-time defaults.
func (p *TextProcessor) ProcessCustom(text string, opts Options) string {
	result := text
	if opts.Lowercase {
		result = strings.ToLower(result)
	}
	if opts.RemoveSpecialChars {
		result = removeSpecialChars(result)
	}
	if opts.RemoveStopwords {
		result = removeStopwords(result)
	}
	if opts.Stem {
		result = stemTokens(result)
	}
	if opts.Lemmatize {
		result = lemmatizeTokens(result)
	}
	return result
}

func removeSpecialChars(text string) string {
	text = controlChars.ReplaceAllString(text, " ")
	text = punctuation.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func removeStopwords(text string) string {
	tokens := strings.Fields(text)
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := stopwordSet[token]; ok {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}

func stemTokens(text string) string {
	tokens := strings.Fields(text)
	for i, token := range tokens {
		stemmed, err := snowball.Stem(token, "english", true)
		if err != nil {
			// keep the original token, stemming is best effort
			continue
		}
		tokens[i] = stemmed
	}
	return strings.Join(tokens, " ")
}

func lemmatizeTokens(text string) string {
	tokens := strings.Fields(text)
	for i, token := range tokens {
		tokens[i] = lemmatizer.Lemma(token)
	}
	return strings.Join(tokens, " ")
}
