package speech

import (
	"strings"
	"unicode"
)

const (
	// Sentences longer than this are repacked into smaller chunks.
	longSentenceThreshold = 100
	// Target size for repacked chunks. Packing is greedy at word
	// boundaries, so a chunk may run slightly past this.
	chunkTarget = 80
)

// chunkText segments text into sentence-like units and repacks long ones
// into word-boundary chunks near the target size. Finer granularity bounds
// how long an interrupt waits for the current chunk to finish; the worker
// only checks for interruption between chunks.
func chunkText(text string) []string {
	var out []string
	for _, sentence := range splitSentences(text) {
		if len(sentence) <= longSentenceThreshold {
			out = append(out, sentence)
			continue
		}
		out = append(out, packWords(sentence)...)
	}
	return out
}

// splitSentences breaks on sentence-terminal punctuation followed by
// whitespace, keeping the punctuation with the sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isSentenceTerminal(runes[i]) {
			continue
		}
		// Swallow a run of terminal punctuation ("?!", "...").
		end := i
		for end+1 < len(runes) && isSentenceTerminal(runes[end+1]) {
			end++
		}
		if end+1 < len(runes) && !unicode.IsSpace(runes[end+1]) {
			i = end
			continue
		}
		s := strings.TrimSpace(string(runes[start : end+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		i = end
		start = end + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isSentenceTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// packWords greedily joins words until the running chunk crosses the target,
// then flushes. Words are never split.
func packWords(sentence string) []string {
	words := strings.Fields(sentence)
	var chunks []string
	var current []string
	length := 0

	for _, w := range words {
		if length > 0 {
			length++ // joining space
		}
		length += len(w)
		current = append(current, w)
		if length > chunkTarget {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			length = 0
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
