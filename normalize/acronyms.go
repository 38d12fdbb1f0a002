package normalize

import (
	_ "embed"
	"encoding/json"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

//go:embed acronyms.json
var acronymsRaw []byte

type acronymCatalog struct {
	Acronyms map[string][]string `json:"acronyms"`
}

type acronymRule struct {
	acronym   string
	expansion string
	// "uniform resource locator url" collapses to the expansion before
	// the bare acronym gets expanded
	redundant        *regexp.Regexp
	bareAcronym      *regexp.Regexp
	expansionPattern *regexp.Regexp
}

// AcronymResolver rewrites acronyms and their expansions into a single
// canonical form so that "URL" and "Uniform Resource Locator" compare
// equal downstream.
type AcronymResolver struct {
	rules []acronymRule
}

func NewAcronymResolver() (*AcronymResolver, error) {
	var catalog acronymCatalog
	if err := json.Unmarshal(acronymsRaw, &catalog); err != nil {
		return nil, errors.Wrap(err, "could not parse acronym catalog")
	}

	acronyms := make([]string, 0, len(catalog.Acronyms))
	for acronym := range catalog.Acronyms {
		acronyms = append(acronyms, acronym)
	}
	// map iteration order is random, keep the rewrite order stable
	sort.Strings(acronyms)

	resolver := &AcronymResolver{}
	for _, acronym := range acronyms {
		for _, expansion := range catalog.Acronyms[acronym] {
			resolver.rules = append(resolver.rules, acronymRule{
				acronym:          acronym,
				expansion:        expansion,
				redundant:        regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(expansion) + `\s+` + regexp.QuoteMeta(acronym) + `\b`),
				bareAcronym:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(acronym) + `\b`),
				expansionPattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(expansion) + `\b`),
			})
		}
	}
	return resolver, nil
}

// Resolve runs two passes over the input. The first pass expands every
// acronym, collapsing redundant "expansion acronym" sequences first. The
// second pass folds every expansion back into its acronym, so repeated
// calls are idempotent.
func (r *AcronymResolver) Resolve(input string) string {
	for _, rule := range r.rules {
		input = rule.redundant.ReplaceAllString(input, rule.expansion)
		input = rule.bareAcronym.ReplaceAllString(input, rule.expansion)
	}
	for _, rule := range r.rules {
		input = rule.expansionPattern.ReplaceAllString(input, rule.acronym)
	}
	return input
}
