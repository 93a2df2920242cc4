package policy

import (
	"regexp"
	"strings"
)

type IntentDecision struct {
	Risk    string
	Blocked bool
	Reason  string
}

var (
	blockedIntentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brm\s+-rf\s+/(?:\s|$)`),
		regexp.MustCompile(`(?i)\b(sudo\s+)?cat\s+.*(?:id_rsa|id_ed25519|\.env|auth\.json)`),
		regexp.MustCompile(`(?i)\b(exfiltrate|steal|dump credentials|leak secrets?)\b`),
		regexp.MustCompile(`(?i)\b(print|show|reveal)\b.*\b(api[_ -]?key|token|password|secret)\b`),
	}
	highRiskKeywords = []string{
		"delete", "remove", "format", "wipe", "destroy",
		"kill", "terminate", "uninstall", "chmod", "chown", "sudo",
	}
)

// DecideIntent screens free-form queries before they reach the model.
// Blocked queries never leave the process.
func DecideIntent(intent string) IntentDecision {
	in := strings.ToLower(strings.TrimSpace(intent))
	if in == "" {
		return IntentDecision{Risk: "low"}
	}

	for _, re := range blockedIntentPatterns {
		if re.MatchString(in) {
			return IntentDecision{
				Risk:    "blocked",
				Blocked: true,
				Reason:  "Request appears to include destructive or secret-exfiltration behavior.",
			}
		}
	}

	for _, kw := range highRiskKeywords {
		if strings.Contains(in, kw) {
			return IntentDecision{Risk: "high"}
		}
	}

	return IntentDecision{Risk: "low"}
}
