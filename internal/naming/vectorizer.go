package naming

import (
	"math"
	"sort"
	"strings"

	"topicseg/internal/textproc"
)

// vectorizer is a TF-IDF model over unigrams and bigrams fitted on the
// chunks of one document.
type vectorizer struct {
	tok *textproc.Tokenizer
	idf map[string]float64
}

// termsOf returns the unigrams followed by the bigrams of text. Bigrams are
// built after stopword removal.
func termsOf(tok *textproc.Tokenizer, text string) []string {
	words := tok.Tokenize(text)
	terms := make([]string, 0, 2*len(words))
	terms = append(terms, words...)
	for i := 0; i+1 < len(words); i++ {
		terms = append(terms, words[i]+" "+words[i+1])
	}
	return terms
}

// fitVectorizer keeps the maxFeatures most frequent terms of corpus and
// computes their smoothed idf, ln((1+N)/(1+df))+1.
func fitVectorizer(tok *textproc.Tokenizer, corpus []string, maxFeatures int) *vectorizer {
	df := make(map[string]int)
	freq := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, term := range termsOf(tok, doc) {
			freq[term]++
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	vocab := make([]string, 0, len(freq))
	for term := range freq {
		vocab = append(vocab, term)
	}
	sort.Slice(vocab, func(i, j int) bool {
		if freq[vocab[i]] != freq[vocab[j]] {
			return freq[vocab[i]] > freq[vocab[j]]
		}
		return vocab[i] < vocab[j]
	})
	if maxFeatures > 0 && len(vocab) > maxFeatures {
		vocab = vocab[:maxFeatures]
	}

	n := float64(len(corpus))
	idf := make(map[string]float64, len(vocab))
	for _, term := range vocab {
		idf[term] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return &vectorizer{tok: tok, idf: idf}
}

type scoredTerm struct {
	term  string
	score float64
}

// topTerms returns up to k vocabulary terms of text by descending L2
// normalized tf-idf weight. Ties are broken alphabetically.
func (v *vectorizer) topTerms(text string, k int) []scoredTerm {
	tf := make(map[string]int)
	for _, term := range termsOf(v.tok, text) {
		if _, ok := v.idf[term]; ok {
			tf[term]++
		}
	}
	if len(tf) == 0 {
		return nil
	}

	scored := make([]scoredTerm, 0, len(tf))
	var norm float64
	for term, count := range tf {
		w := float64(count) * v.idf[term]
		norm += w * w
		scored = append(scored, scoredTerm{term: term, score: w})
	}
	norm = math.Sqrt(norm)
	for i := range scored {
		scored[i].score /= norm
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].term < scored[j].term
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func joinTerms(terms []scoredTerm) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.term
	}
	return strings.Join(parts, ", ")
}
