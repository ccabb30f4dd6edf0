package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dmoraru/personas/internal/model"
)

// Document is one source text with its provenance metadata, ready for
// chunking.
type Document struct {
	Text     string
	Metadata map[string]string
}

// LoadWorks reads every .txt and .md under the persona's works directory.
// A missing directory is an empty corpus, not an error.
func LoadWorks(dir string, persona *model.Persona) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		content, err := readText(filepath.Join(dir, entry.Name()), ext)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		docs = append(docs, Document{
			Text: content,
			Metadata: map[string]string{
				"source_file":  entry.Name(),
				"persona_id":   persona.PersonaID,
				"persona_name": persona.DisplayName,
				"source_type":  "literary_work",
			},
		})
	}
	return docs, nil
}

// LoadQuotes reads the merged quotes corpus, one document per line so every
// quote stays retrievable on its own.
func LoadQuotes(path string, persona *model.Persona) ([]Document, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []Document
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
			return nil, fmt.Errorf("quotes line %d: %w", lineNo, err)
		}
		if strings.TrimSpace(q.Text) == "" {
			continue
		}
		sourceFile := q.SourceFile
		if sourceFile == "" {
			sourceFile = filepath.Base(path)
		}
		sourceType := q.SourceType
		if sourceType == "" {
			sourceType = "quote"
		}
		docs = append(docs, Document{
			Text: q.Text,
			Metadata: map[string]string{
				"source_file":  sourceFile,
				"persona_id":   persona.PersonaID,
				"persona_name": persona.DisplayName,
				"source_type":  sourceType,
			},
		})
	}
	return docs, scanner.Err()
}

// LoadProfile reads the seeded profile.md plus any uploaded profile
// documents (.txt/.md/.pdf) next to it.
func LoadProfile(dir string, persona *model.Persona) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" && ext != ".pdf" {
			continue
		}
		content, err := readText(filepath.Join(dir, entry.Name()), ext)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		sourceType := "profile_document"
		if entry.Name() == "profile.md" {
			sourceType = "profile_summary"
		}
		docs = append(docs, Document{
			Text: content,
			Metadata: map[string]string{
				"source_file":  entry.Name(),
				"persona_id":   persona.PersonaID,
				"persona_name": persona.DisplayName,
				"source_type":  sourceType,
			},
		})
	}
	return docs, nil
}

func readText(path string, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDFText(path)
	case ".md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return stripMarkdown(raw), nil
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

// stripMarkdown flattens markdown to plain text by walking the goldmark AST
// and keeping only text segments, one paragraph per block.
func stripMarkdown(src []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))
	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, ok := n.(*ast.Paragraph); ok {
				sb.WriteString("\n\n")
			}
			if _, ok := n.(*ast.Heading); ok {
				sb.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.AutoLink:
			sb.Write(t.URL(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
