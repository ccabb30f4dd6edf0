package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Synthesizer turns retrieved context into a persona-voice answer. It is
// deliberately infallible: when every generator in the chain fails the raw
// context is returned with a diagnostic note, so retrieval results are never
// lost to an LLM outage.
type Synthesizer struct {
	gen     IGenerator
	timeout time.Duration
}

func NewSynthesizer(gen IGenerator, timeout time.Duration) *Synthesizer {
	return &Synthesizer{gen: gen, timeout: timeout}
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, contextText string, sourceList string, voicePrompt string, displayName string) string {
	prompt := buildSynthesisPrompt(query, contextText, sourceList, displayName)
	if s.gen == nil {
		return fallbackAnswer(contextText, sourceList, fmt.Errorf("generator not configured"))
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	answer, err := s.gen.Generate(ctx, voicePrompt, prompt)
	if err != nil {
		logutil.GetLogger(ctx).Error("synthesis failed, returning raw context", zap.Error(err))
		return fallbackAnswer(contextText, sourceList, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fallbackAnswer(contextText, sourceList, fmt.Errorf("empty ai response"))
	}
	return answer
}

func buildSynthesisPrompt(query string, context string, sourceList string, displayName string) string {
	var sb strings.Builder
	sb.WriteString("# Context Recuperat\n\n")
	sb.WriteString(context)
	sb.WriteString("\n\n# Intrebarea Utilizatorului\n")
	sb.WriteString(query)
	sb.WriteString("\n\n# Surse\n")
	sb.WriteString(sourceList)
	sb.WriteString("\n\n# Instructiuni de Raspuns\n")
	sb.WriteString("Folosind contextul recuperat de mai sus, raspunde la intrebarea ")
	sb.WriteString("utilizatorului in vocea lui " + displayName + ".\n\n")
	sb.WriteString("**Ierarhia informatiei:**\n")
	sb.WriteString("1. Profilul biografic/intelectual = LENTILA prin care interpretezi totul.\n")
	sb.WriteString("2. Citatele = calibrarea vocii (ton, expresii, aforisme).\n")
	sb.WriteString("3. Opera = dovezi textuale primare (scrierile reale).\n\n")
	sb.WriteString("Fii detaliat si cuprinzator. Citeaza din opera cand e relevant. ")
	sb.WriteString("Raspunde EXCLUSIV in limba romana.")
	return sb.String()
}

func fallbackAnswer(context string, sourceList string, err error) string {
	return fmt.Sprintf("%s\n\n# Surse\n%s\n\n(Nota: Sinteza LLM a esuat, se returneaza contextul brut. Eroare: %v)", context, sourceList, err)
}
