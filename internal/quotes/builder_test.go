package quotes

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmoraru/personas/internal/model"
)

func readCorpus(t *testing.T, dir string) []model.Quote {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, CorpusFileName))
	require.NoError(t, err)
	defer f.Close()
	var out []model.Quote
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var q model.Quote
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &q))
		out = append(out, q)
	}
	return out
}

func TestBuildCuratedOnly(t *testing.T) {
	dir := t.TempDir()
	n, err := Build(dir, []string{"Ce e val, ca valul trece.", "Nu spera si nu ai teama."}, "eminescu")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	corpus := readCorpus(t, dir)
	require.Len(t, corpus, 2)
	assert.Equal(t, "curated", corpus[0].SourceType)
	assert.Equal(t, "eminescu", corpus[0].SourceFile)
}

func TestBuildMergesUploadsAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	upload := `{"text":"Ce e val, ca valul trece.","source_type":"uploaded"}
{"text":"O noua cugetare."}
{"text":"O noua cugetare."}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.jsonl"), []byte(upload), 0o644))

	n, err := Build(dir, []string{"Ce e val, ca valul trece."}, "eminescu")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	corpus := readCorpus(t, dir)
	require.Len(t, corpus, 2)
	// curated entry wins the duplicate
	assert.Equal(t, "curated", corpus[0].SourceType)
	assert.Equal(t, "extra.jsonl", corpus[1].SourceFile)
}

func TestBuildSkipsOwnCorpusFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Build(dir, []string{"unu"}, "p")
	require.NoError(t, err)
	// Rebuild should not re-read all_quotes.jsonl and double entries.
	n, err := Build(dir, []string{"unu", "doi"}, "p")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBuildIgnoresBlankAndMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "quotes")
	n, err := Build(dir, []string{"  ", "", "valid"}, "p")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBuildRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jsonl"), []byte("{not json}\n"), 0o644))
	_, err := Build(dir, nil, "p")
	assert.Error(t, err)
}
