package problemid

import "strings"

// Normalize canonicalizes problem names and their short aliases.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	candidate := strings.Trim(strings.TrimPrefix(normalized, "problem-"), "-")
	if canonical, ok := canonicalProblemName(candidate); ok {
		return canonical
	}
	return normalized
}

func canonicalProblemName(alias string) (string, bool) {
	compact := strings.ReplaceAll(alias, "-", "")
	switch compact {
	case "interruptionswaprecall", "swaprecall", "isr":
		return "interruption-swap-recall", true
	default:
		return "", false
	}
}
