// Package chunker provides sentence-aware text splitting for ingestion.
// Chunk size and overlap are token budgets, measured with a cheap estimator
// rather than a real tokenizer.
package chunker

import (
	"regexp"
	"strings"
)

var sentenceRegex = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+)`)

type SentenceSplitter struct {
	chunkSize    int
	chunkOverlap int
}

func NewSentenceSplitter(chunkSize, chunkOverlap int) *SentenceSplitter {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 4
	}
	return &SentenceSplitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Split breaks text into chunks of at most chunkSize estimated tokens,
// never cutting inside a sentence. Consecutive chunks share trailing
// sentences worth up to chunkOverlap tokens.
func (s *SentenceSplitter) Split(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, " "))

		// Carry trailing sentences into the next chunk as overlap.
		overlapTokens := 0
		var overlap []string
		for i := len(current) - 1; i >= 0; i-- {
			tokens := EstimateTokens(current[i])
			if overlapTokens+tokens > s.chunkOverlap {
				break
			}
			overlapTokens += tokens
			overlap = append([]string{current[i]}, overlap...)
		}
		current = overlap
		currentTokens = overlapTokens
	}

	for _, sentence := range sentences {
		tokens := EstimateTokens(sentence)
		if currentTokens > 0 && currentTokens+tokens > s.chunkSize {
			flush()
		}
		current = append(current, sentence)
		currentTokens += tokens
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

func splitSentences(text string) []string {
	matches := sentenceRegex.FindAllString(text, -1)
	if len(matches) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		trimmed := strings.TrimSpace(m)
		if trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	// The regex drops a trailing fragment without sentence punctuation;
	// keep it, quotes and verse often end without a period.
	consumed := 0
	for _, m := range matches {
		consumed = strings.Index(text[consumed:], m) + consumed + len(m)
	}
	if tail := strings.TrimSpace(text[consumed:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// EstimateTokens counts words for latin script plus one token per non-ASCII
// rune, a heuristic good enough for budgeting chunks.
func EstimateTokens(text string) int {
	count := 0
	for _, r := range text {
		if r > 127 {
			count++
		}
	}
	count += len(strings.Fields(text))
	if count == 0 && len(text) > 0 {
		return 1
	}
	return count
}
