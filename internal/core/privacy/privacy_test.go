package privacy

import (
	"strings"
	"testing"

	"github.com/asklegal/engine/internal/core/domain"
)

func TestClassifyPublic(t *testing.T) {
	level := Classify("What is the GST registration threshold?")
	if level != domain.SensitivityPublic {
		t.Fatalf("expected public, got %s", level)
	}
}

func TestClassifySensitive(t *testing.T) {
	cases := []string{
		"My bank account needs updating for the refund",
		"Turnover last year was 2 crore",
		"Is my PAN required for registration?",
	}
	for _, text := range cases {
		if level := Classify(text); level != domain.SensitivitySensitive {
			t.Fatalf("expected sensitive for %q, got %s", text, level)
		}
	}
}

func TestClassifyHighlySensitive(t *testing.T) {
	level := Classify("My case no. 1234 in the Delhi High Court involves a dispute")
	if level != domain.SensitivityHighlySensitive {
		t.Fatalf("expected highly sensitive, got %s", level)
	}
}

func TestClassifyHighlySensitiveWinsOverSensitive(t *testing.T) {
	// Contains both a sensitive marker (salary) and a highly sensitive one
	// (court); the higher level must win.
	level := Classify("The court ordered disclosure of my salary and bank account 1234567890")
	if level != domain.SensitivityHighlySensitive {
		t.Fatalf("expected highly sensitive to take priority, got %s", level)
	}
}

func TestRedactCategories(t *testing.T) {
	in := "Aadhaar 123456789012, PAN ABCDE1234F, reach me at a.b@example.com or 987-654-3210"
	out := Redact(in)

	for _, want := range []string{"[REDACTED_ID]", "[REDACTED_EMAIL]", "[REDACTED_PHONE]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %q", want, out)
		}
	}
	for _, leaked := range []string{"123456789012", "ABCDE1234F", "a.b@example.com", "987-654-3210"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("redacted output still contains %q: %q", leaked, out)
		}
	}
}

func TestRedactAccountNumber(t *testing.T) {
	out := Redact("transfer from account 12345678901234")
	if !strings.Contains(out, "[REDACTED_ACCOUNT]") {
		t.Fatalf("expected account placeholder, got %q", out)
	}
}

func TestRedactIdempotent(t *testing.T) {
	cases := []string{
		"Aadhaar 123456789012 and PAN ABCDE1234F",
		"call 9876543210 or mail x@y.in",
		"nothing sensitive here",
		"account 1234567890123456",
	}
	for _, text := range cases {
		once := Redact(text)
		twice := Redact(once)
		if once != twice {
			t.Fatalf("redaction not idempotent for %q: %q != %q", text, once, twice)
		}
	}
}
