package policy

import (
	"strings"
	"testing"
)

func TestRedactPII(t *testing.T) {
	input := "Email me at sam@example.com or +1 (555) 123-9876 and use 4242 4242 4242 4242."
	out, changed := RedactPII(input)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
}

func TestRedactSecret(t *testing.T) {
	input := "OPENAI_API_KEY=sk-abc123def456ghi789jkl was visible in the terminal"
	out, changed := RedactPII(input)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	if strings.Contains(out, "sk-abc123def456ghi789jkl") {
		t.Fatalf("secret survived redaction: %q", out)
	}
	if !strings.Contains(out, "[REDACTED_SECRET]") {
		t.Fatalf("output missing secret marker: %q", out)
	}
}

func TestRedactPIINoChange(t *testing.T) {
	out, changed := RedactPII("open vscode")
	if changed || out != "open vscode" {
		t.Fatalf("unexpected redaction: %q changed=%v", out, changed)
	}
}
