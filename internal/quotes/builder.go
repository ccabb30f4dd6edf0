// Package quotes assembles a persona's quotes corpus. Curated quotes from
// the persona record and uploaded quote files are merged into a single
// all_quotes.jsonl, deduplicated by content hash.
package quotes

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmoraru/personas/internal/model"
)

const CorpusFileName = "all_quotes.jsonl"

// Build merges curated quotes with any *.jsonl uploads in quotesDir and
// writes the merged corpus back as all_quotes.jsonl. Returns the number of
// distinct quotes written.
func Build(quotesDir string, curated []string, sourceName string) (int, error) {
	merged := make([]model.Quote, 0, len(curated))
	seen := make(map[string]bool)

	for _, text := range curated {
		q := model.Quote{Text: strings.TrimSpace(text), SourceType: "curated", SourceFile: sourceName}
		if q.Text == "" {
			continue
		}
		if key := contentHash(q.Text); !seen[key] {
			seen[key] = true
			merged = append(merged, q)
		}
	}

	entries, err := os.ReadDir(quotesDir)
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" || entry.Name() == CorpusFileName {
			continue
		}
		loaded, err := readQuoteFile(filepath.Join(quotesDir, entry.Name()))
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		for _, q := range loaded {
			if q.SourceFile == "" {
				q.SourceFile = entry.Name()
			}
			if key := contentHash(q.Text); !seen[key] {
				seen[key] = true
				merged = append(merged, q)
			}
		}
	}

	if err := os.MkdirAll(quotesDir, 0o755); err != nil {
		return 0, err
	}
	out, err := os.Create(filepath.Join(quotesDir, CorpusFileName))
	if err != nil {
		return 0, err
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	for _, q := range merged {
		line, err := json.Marshal(q)
		if err != nil {
			return 0, err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return 0, err
		}
	}
	if err := w.Flush(); err != nil {
		return 0, err
	}
	return len(merged), nil
}

func readQuoteFile(path string) ([]model.Quote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []model.Quote
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var q model.Quote
		if err := json.Unmarshal([]byte(line), &q); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			continue
		}
		out = append(out, q)
	}
	return out, scanner.Err()
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
