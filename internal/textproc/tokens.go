package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’]\p{L}+)*`)

// Tokenizer lower-cases text and splits it into terms, dropping stopwords
// and single-rune tokens. Numbers such as years are kept.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a tokenizer with the given stopwords. A nil list
// selects DefaultStopwords.
func NewTokenizer(stopwords []string) *Tokenizer {
	if stopwords == nil {
		stopwords = DefaultStopwords
	}
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Tokenize returns the terms of text in order of appearance.
func (t *Tokenizer) Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if t.IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// IsStopword reports whether word is in the stopword list.
func (t *Tokenizer) IsStopword(word string) bool {
	_, ok := t.stopwords[strings.ToLower(word)]
	return ok
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
func TitleCase(s string) string {
	// cases.Caser keeps state and must not be shared between goroutines.
	return cases.Title(language.English).String(s)
}

// DefaultStopwords is a common English stopword list.
var DefaultStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any", "are",
	"aren't", "as", "at", "be", "because", "been", "before", "being", "below", "between", "both", "but",
	"by", "can", "can't", "cannot", "could", "couldn't", "did", "didn't", "do", "does", "doesn't",
	"doing", "don", "don't", "down", "during", "each", "either", "else", "etc", "even", "ever", "every",
	"few", "for", "from", "further", "get", "gets", "had", "hadn't", "has", "hasn't", "have", "haven't",
	"having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how", "however", "i",
	"if", "in", "into", "is", "isn't", "it", "it's", "its", "itself", "just", "let's", "may", "me",
	"might", "more", "most", "much", "must", "mustn't", "my", "myself", "neither", "no", "nor", "not",
	"now", "of", "off", "often", "on", "once", "one", "only", "or", "other", "others", "otherwise",
	"ought", "our", "ours", "ourselves", "out", "over", "own", "per", "rather", "same", "shall",
	"shan't", "she", "should", "shouldn't", "since", "so", "some", "such", "than", "that", "that's",
	"the", "their", "theirs", "them", "themselves", "then", "there", "there's", "therefore", "these",
	"they", "they're", "this", "those", "though", "through", "thus", "to", "too", "under", "until",
	"up", "upon", "us", "very", "via", "was", "wasn't", "we", "we're", "were", "weren't", "what",
	"when", "where", "whereas", "whether", "which", "while", "who", "whom", "whose", "why", "will",
	"with", "within", "without", "won't", "would", "wouldn't", "yet", "you", "you're", "your", "yours",
	"yourself", "yourselves",
}
