// Package textproc holds the text primitives shared by the chunker, the
// embedders and the topic namer: sentence splitting, word tokenization,
// stopwords and title casing.
package textproc

import (
	"regexp"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

var (
	sentenceRe = regexp.MustCompile(`(?s)[^.!?]+[.!?]+`)

	loadTokenizer = sync.OnceValues(func() (*sentences.DefaultSentenceTokenizer, error) {
		return english.NewSentenceTokenizer(nil)
	})
)

// Sentences splits text into trimmed, non-empty sentences using the punkt
// English model. If the model cannot be loaded it falls back to splitting on
// terminal punctuation.
func Sentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	tok, err := loadTokenizer()
	if err != nil {
		return regexSentences(text)
	}
	var out []string
	for _, s := range tok.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func regexSentences(text string) []string {
	var out []string
	end := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		if t := strings.TrimSpace(text[loc[0]:loc[1]]); t != "" {
			out = append(out, t)
		}
		end = loc[1]
	}
	// trailing text without terminal punctuation
	if rest := strings.TrimSpace(text[end:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// Paragraphs splits text on blank lines and drops empty paragraphs.
func Paragraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(normalized, "\n\n") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
