package detector

import (
	"fmt"

	"github.com/tiago918/app-chamadas/pkg/event"
	"github.com/tiago918/app-chamadas/pkg/profile"
	"github.com/tiago918/app-chamadas/pkg/rules"
)

// reasons collects machine-readable explanation keys from every signal
// that contributed to the score.
func (d *Detector) reasons(ev event.Event, ruleMatch rules.Match, learnedScore float64, behavior *profile.Analysis) []string {
	var out []string

	if ruleMatch.Matched {
		out = append(out, ruleReason(ruleMatch))
	}

	if ev.Kind == event.KindSMS {
		stats := event.ScanContent(ev.Body, d.config.Detection.Keywords)
		if stats.URLCount > 0 {
			out = append(out, "content:contains_link")
		}
		if len(stats.Keywords) > 0 {
			out = append(out, "content:suspicious_keywords")
		}
		if stats.CapsRatio > 0.6 {
			out = append(out, "content:excessive_caps")
		}
	}

	if behavior != nil {
		out = append(out, behavior.Reasons...)
	}

	if learnedScore >= d.config.Detection.SpamThreshold {
		out = append(out, "learned:high_score")
	} else if learnedScore >= d.config.Detection.SuspiciousThreshold {
		out = append(out, "learned:elevated_score")
	}

	return out
}

func ruleReason(match rules.Match) string {
	return fmt.Sprintf("rule_match:%s:%s", match.Rule.Kind, match.Rule.Name)
}

// recommendations maps a level to user-facing guidance, most severe first.
func recommendations(level Level) []string {
	switch level {
	case LevelSpam:
		return []string{
			"Bloquear o remetente",
			"Não responder nem clicar em links",
			"Denunciar o número à operadora",
		}
	case LevelSuspicious:
		return []string{
			"Não compartilhar dados pessoais",
			"Verificar o remetente por outro canal antes de responder",
		}
	case LevelQuestionable:
		return []string{
			"Tratar com cautela",
		}
	default:
		return nil
	}
}
