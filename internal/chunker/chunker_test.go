package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEmpty(t *testing.T) {
	s := NewSentenceSplitter(100, 10)
	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  "))
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSentenceSplitter(100, 10)
	chunks := s.Split("Ce e val, ca valul trece. Ce e om, ca omul piere.")
	assert.Len(t, chunks, 1)
}

func TestSplitRespectsBudget(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("Luna rasare linistita peste codrii vechi de brad. ")
	}
	s := NewSentenceSplitter(50, 10)
	chunks := s.Split(sb.String())
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, EstimateTokens(c), 50+10)
	}
}

func TestSplitNeverCutsSentence(t *testing.T) {
	text := "Prima propozitie este aici. A doua propozitie urmeaza imediat. A treia inchide textul."
	s := NewSentenceSplitter(8, 0)
	chunks := s.Split(text)
	for _, c := range chunks {
		assert.True(t, strings.HasSuffix(c, "."), "chunk must end on a sentence boundary: %q", c)
	}
}

func TestSplitOverlapCarriesSentences(t *testing.T) {
	text := "Unu doi trei patru cinci. Sase sapte opt noua zece. Alfa beta gama delta epsilon."
	s := NewSentenceSplitter(10, 5)
	chunks := s.Split(text)
	assert.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prevLast := lastSentence(chunks[i-1])
		assert.True(t, strings.HasPrefix(chunks[i], prevLast),
			"chunk %d should start with the previous chunk's last sentence", i)
	}
}

func TestSplitKeepsUnterminatedTail(t *testing.T) {
	s := NewSentenceSplitter(100, 0)
	chunks := s.Split("O propozitie intreaga. si un vers fara punct final")
	assert.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "vers fara punct final")
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 3, EstimateTokens("one two three"))
	// Diacritics count both as part of the word and as non-ASCII runes.
	assert.Greater(t, EstimateTokens("pădurea de argint"), 3)
}

func lastSentence(chunk string) string {
	idx := strings.LastIndex(chunk[:len(chunk)-1], ". ")
	if idx < 0 {
		return chunk
	}
	return chunk[idx+2:]
}
