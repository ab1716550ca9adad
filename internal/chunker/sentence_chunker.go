package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"topicseg/internal/textproc"
)

// Options configures SentenceChunker.
type Options struct {
	TargetWords        int // soft upper bound of words per chunk
	MinWords           int // chunks below this are not meaningful
	SentencesPerWindow int // window size of the sentence-group fallback
	CharWindow         int // texts longer than this are halved by the last fallback
}

// DefaultOptions returns the standard chunking parameters.
func DefaultOptions() Options {
	return Options{TargetWords: 200, MinWords: 10, SentencesPerWindow: 3, CharWindow: 500}
}

// SentenceChunker greedily packs sentences into chunks of about TargetWords
// words and falls back to coarser splitting when that yields fewer than two
// chunks.
type SentenceChunker struct {
	opts Options
}

func NewSentenceChunker(opts Options) *SentenceChunker {
	def := DefaultOptions()
	if opts.TargetWords <= 0 {
		opts.TargetWords = def.TargetWords
	}
	if opts.MinWords < 0 {
		opts.MinWords = 0
	}
	if opts.SentencesPerWindow <= 0 {
		opts.SentencesPerWindow = def.SentencesPerWindow
	}
	if opts.CharWindow <= 0 {
		opts.CharWindow = def.CharWindow
	}
	return &SentenceChunker{opts: opts}
}

// MinWords is the word count below which a chunk is not meaningful.
func (c *SentenceChunker) MinWords() int { return c.opts.MinWords }

// Chunk splits text into ordered chunks. It never returns an empty slice:
// empty input yields a single empty chunk.
func (c *SentenceChunker) Chunk(text string) []string {
	sentences := textproc.Sentences(text)

	natural := c.meaningful(c.pack(sentences))
	if len(natural) >= 2 {
		return natural
	}
	if paragraphs := c.meaningful(textproc.Paragraphs(text)); len(paragraphs) >= 2 {
		return paragraphs
	}
	if windows := c.meaningful(c.windows(sentences)); len(windows) >= 2 {
		return windows
	}
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) > c.opts.CharWindow {
		return halve(trimmed)
	}
	if len(natural) == 1 {
		return natural
	}
	return []string{trimmed}
}

func (c *SentenceChunker) pack(sentences []string) []string {
	var chunks []string
	var current []string
	words := 0
	for _, s := range sentences {
		n := textproc.WordCount(s)
		if words+n <= c.opts.TargetWords {
			current = append(current, s)
			words += n
			continue
		}
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}
		current = []string{s}
		words = n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

func (c *SentenceChunker) windows(sentences []string) []string {
	var out []string
	for i := 0; i < len(sentences); i += c.opts.SentencesPerWindow {
		end := min(i+c.opts.SentencesPerWindow, len(sentences))
		out = append(out, strings.Join(sentences[i:end], " "))
	}
	return out
}

func (c *SentenceChunker) meaningful(chunks []string) []string {
	out := chunks[:0:0]
	for _, ch := range chunks {
		if textproc.WordCount(ch) >= c.opts.MinWords {
			out = append(out, ch)
		}
	}
	return out
}

// halve splits text into two windows of roughly equal rune length, moving the
// cut forward to the next whitespace so no word is broken.
func halve(text string) []string {
	runes := []rune(text)
	cut := len(runes) / 2
	for cut < len(runes) && !unicode.IsSpace(runes[cut]) {
		cut++
	}
	left := strings.TrimSpace(string(runes[:cut]))
	right := strings.TrimSpace(string(runes[cut:]))
	if right == "" {
		return []string{left}
	}
	return []string{left, right}
}
