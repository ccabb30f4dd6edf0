// Package composer renders retrieved chunks into the layered context fed to
// synthesis: profile first as the interpretive lens, then works as primary
// textual evidence, then quotes for voice calibration.
package composer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/retrieval"
)

const chunkSeparator = "\n\n---\n\n"

// Assembled is the composed retrieval context for one query.
type Assembled struct {
	Context string
	Sources []string
	// Found is false when every collection came back empty; callers must
	// answer with Sentinel instead of running synthesis.
	Found bool
}

func Assemble(displayName string, results retrieval.Results) Assembled {
	var sections []string
	sourceSet := make(map[string]bool)

	if r := results[model.CollectionProfile]; len(r.Chunks) > 0 {
		sections = append(sections,
			"## Profil si Context Biografic\n"+
				"Foloseste acest context pentru a incadra si interpreta informatiile.\n\n"+
				strings.Join(r.Chunks, chunkSeparator))
		collect(sourceSet, r.Sources)
	}
	if r := results[model.CollectionWorks]; len(r.Chunks) > 0 {
		sections = append(sections,
			fmt.Sprintf("## Opera (texte din lucrarile lui %s)\n\n", displayName)+
				strings.Join(r.Chunks, chunkSeparator))
		collect(sourceSet, r.Sources)
	}
	if r := results[model.CollectionQuotes]; len(r.Chunks) > 0 {
		sections = append(sections,
			"## Citate Reprezentative\n\n"+
				strings.Join(r.Chunks, chunkSeparator))
		collect(sourceSet, r.Sources)
	}

	if len(sections) == 0 {
		return Assembled{}
	}

	sources := make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	return Assembled{
		Context: strings.Join(sections, "\n\n"),
		Sources: sources,
		Found:   true,
	}
}

// SourceList renders sources the way they appear in the synthesis prompt.
func SourceList(sources []string) string {
	lines := make([]string, 0, len(sources))
	for _, s := range sources {
		lines = append(lines, "  - "+s)
	}
	return strings.Join(lines, "\n")
}

// Sentinel is the no-knowledge answer for a persona.
func Sentinel(displayName string) string {
	return fmt.Sprintf("Nu am gasit informatii relevante despre aceasta intrebare in baza de cunostinte a lui %s.", displayName)
}

func collect(dst map[string]bool, sources []string) {
	for _, s := range sources {
		dst[s] = true
	}
}
