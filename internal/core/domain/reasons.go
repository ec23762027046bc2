package domain

import "strings"

// ReasonOther marks a free-text reason typed by the user.
const ReasonOther = "Outro"

// Intake form sentinels meaning "nothing selected".
const (
	PlaceholderRegional = "Selecione uma Regional"
	PlaceholderStore    = "Selecione uma Loja"
	PlaceholderReason   = "Selecione um Motivo"
)

var predefinedReasons = []string{
	"Falha Impressão",
	"Impressora Queimada",
	"Router não funciona",
	"Notebook não liga",
	"Coletor não conecta",
	ReasonOther,
}

// PredefinedReasons lists the selectable ticket reasons, ReasonOther last.
func PredefinedReasons() []string {
	out := make([]string, len(predefinedReasons))
	copy(out, predefinedReasons)
	return out
}

// IsPlaceholder reports whether v is one of the "nothing selected" sentinels.
func IsPlaceholder(v string) bool {
	switch strings.TrimSpace(v) {
	case PlaceholderRegional, PlaceholderStore, PlaceholderReason:
		return true
	}
	return false
}

// ResolveReason returns the reason to persist: the free text when reason is
// ReasonOther, reason itself otherwise.
func ResolveReason(reason, other string) string {
	if strings.TrimSpace(reason) == ReasonOther {
		return strings.TrimSpace(other)
	}
	return strings.TrimSpace(reason)
}
