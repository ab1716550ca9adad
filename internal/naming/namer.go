// Package naming derives human readable topic labels from the most
// distinctive terms of a cluster.
package naming

import (
	"strings"

	"topicseg/internal/domain"
	"topicseg/internal/logger"
	"topicseg/internal/textproc"
)

// Options configures label construction.
type Options struct {
	TopTerms      int    // candidate terms taken from the cluster
	LabelTerms    int    // terms joined into the label
	FallbackWords int    // words of the first sentence used when no term survives
	MaxFeatures   int    // vocabulary cap
	DefaultLabel  string // label of last resort
}

func DefaultOptions() Options {
	return Options{
		TopTerms:      5,
		LabelTerms:    3,
		FallbackWords: 5,
		MaxFeatures:   1000,
		DefaultLabel:  "General Topic",
	}
}

// Factory fits a TF-IDF namer on the chunks of each document.
type Factory struct {
	opts Options
	tok  *textproc.Tokenizer
	log  logger.Logger
}

var _ domain.NamerFactory = (*Factory)(nil)

func NewFactory(opts Options, log logger.Logger) *Factory {
	def := DefaultOptions()
	if opts.TopTerms <= 0 {
		opts.TopTerms = def.TopTerms
	}
	if opts.LabelTerms <= 0 {
		opts.LabelTerms = def.LabelTerms
	}
	if opts.FallbackWords <= 0 {
		opts.FallbackWords = def.FallbackWords
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = def.MaxFeatures
	}
	if opts.DefaultLabel == "" {
		opts.DefaultLabel = def.DefaultLabel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Factory{opts: opts, tok: textproc.NewTokenizer(nil), log: log}
}

// NewNamer fits document frequencies on corpus, normally every chunk of the
// document being segmented.
func (f *Factory) NewNamer(corpus []string) domain.Namer {
	return &Namer{
		opts: f.opts,
		vec:  fitVectorizer(f.tok, corpus, f.opts.MaxFeatures),
		log:  f.log,
	}
}

// Namer labels clusters of one document.
type Namer struct {
	opts Options
	vec  *vectorizer
	log  logger.Logger
}

// Name returns a non-empty label for the cluster made of chunks.
func (n *Namer) Name(chunks []string) (label string) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Warn("topic naming failed", "error", r)
			label = n.opts.DefaultLabel
		}
	}()

	terms := n.topTerms(chunks)
	if label := n.fromTerms(terms); label != "" {
		n.log.Debug("named topic", "label", label, "terms", joinTerms(terms))
		return label
	}
	if label := n.fromFirstSentence(chunks); label != "" {
		n.log.Debug("named topic from first sentence", "label", label)
		return label
	}
	return n.opts.DefaultLabel
}

// topTerms extracts candidate terms. A panic counts as no terms.
func (n *Namer) topTerms(chunks []string) (terms []scoredTerm) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Warn("term extraction failed", "error", r)
			terms = nil
		}
	}()
	return n.vec.topTerms(strings.Join(chunks, " "), n.opts.TopTerms)
}

// fromTerms joins up to LabelTerms candidates, skipping a candidate that
// shares a word with the label so far.
func (n *Namer) fromTerms(terms []scoredTerm) string {
	used := make(map[string]bool)
	var parts []string
candidates:
	for _, t := range terms {
		if len(parts) == n.opts.LabelTerms {
			break
		}
		words := strings.Fields(t.term)
		for _, w := range words {
			if used[w] {
				continue candidates
			}
		}
		for _, w := range words {
			used[w] = true
		}
		parts = append(parts, textproc.TitleCase(t.term))
	}
	return strings.Join(parts, " ")
}

func (n *Namer) fromFirstSentence(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}
	sentences := textproc.Sentences(chunks[0])
	if len(sentences) == 0 {
		return ""
	}
	words := strings.Fields(sentences[0])
	if len(words) > n.opts.FallbackWords {
		words = words[:n.opts.FallbackWords]
	}
	label := strings.TrimRight(strings.Join(words, " "), ".!?,;:")
	return textproc.TitleCase(strings.TrimSpace(label))
}
