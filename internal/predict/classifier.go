package predict

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// tokenizer case-folds text, splits it on anything that is not a letter
// (dropping punctuation and numbers), removes stop words and trims plural
// endings. A cases.Caser is stateful, so every call folds with its own.
type tokenizer struct {
	stop map[string]bool
}

func newTokenizer(stopWords []string) *tokenizer {
	fold := cases.Fold()
	t := &tokenizer{stop: make(map[string]bool, len(stopWords))}
	for _, w := range stopWords {
		t.stop[fold.String(w)] = true
	}
	return t
}

func (t *tokenizer) tokens(text string) []string {
	fields := strings.FieldsFunc(cases.Fold().String(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if t.stop[f] {
			continue
		}
		out = append(out, stem(f))
	}
	return out
}

func stem(word string) string {
	n := len(word)
	switch {
	case n > 4 && strings.HasSuffix(word, "es") && strings.ContainsRune("sxzh", rune(word[n-3])):
		return word[:n-2]
	case n > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:n-1]
	default:
		return word
	}
}

type compiledLabel struct {
	name     string
	keywords map[string]bool
}

type compiledSet struct {
	fallback string
	labels   []compiledLabel
}

func compileLabels(tok *tokenizer, set LabelSet) compiledSet {
	cs := compiledSet{fallback: set.Default, labels: make([]compiledLabel, 0, len(set.Labels))}
	for _, l := range set.Labels {
		cl := compiledLabel{name: l.Name, keywords: make(map[string]bool)}
		for _, kw := range l.Keywords {
			for _, tk := range tok.tokens(kw) {
				cl.keywords[tk] = true
			}
		}
		cs.labels = append(cs.labels, cl)
	}
	return cs
}

// pick scores every label by keyword hits. The first label with the highest
// score wins; no hits at all yields the fallback.
func (cs compiledSet) pick(tokens []string) string {
	best, bestScore := cs.fallback, 0
	for _, l := range cs.labels {
		score := 0
		for _, tk := range tokens {
			if l.keywords[tk] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = l.name, score
		}
	}
	return best
}

// Classifier predicts a task's category and type from its text.
type Classifier struct {
	tok        *tokenizer
	categories compiledSet
	types      compiledSet
}

// Classify returns the predicted category and type for text.
func (c *Classifier) Classify(text string) (category, taskType string) {
	tokens := c.tok.tokens(text)
	return c.categories.pick(tokens), c.types.pick(tokens)
}

// Tokens returns the normalised form of text the classifier scores.
func (c *Classifier) Tokens(text string) []string {
	return c.tok.tokens(text)
}
