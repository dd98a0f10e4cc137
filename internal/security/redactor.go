// Package security scrubs credentials from text before it leaves the
// machine or lands in a log file.
package security

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Placeholder replaces every secret found by Redact.
const Placeholder = "[REDACTED]"

// rule is one class of secret.
type rule struct {
	kind string
	re   *regexp.Regexp
}

var secretRules = []rule{
	{"openai-key", regexp.MustCompile(`sk-[a-zA-Z0-9_\-]{20,}`)},
	{"aws-access-key", regexp.MustCompile(`(?i)AKIA[0-9A-Z]{16}`)},
	{"bearer-token", regexp.MustCompile(`(?i)(?:authorization|auth|token):\s*Bearer\s+[a-zA-Z0-9._\-]+`)},
	{"json-api-key", regexp.MustCompile(`"(?:api_key|apiKey|API_KEY)":\s*"[^"]+"`)},
	// KEY=value lines in .env files and shell scripts.
	{"env-secret", regexp.MustCompile(`(?m)\b[A-Z0-9_]*(?:API_KEY|SECRET|TOKEN|PASSWORD)[A-Z0-9_]*\s*=\s*["']?[^\s"']{8,}["']?`)},
	{"password", regexp.MustCompile(`(?i)(?:password|passwd|pwd):\s*"[^"]+"`)},
	{"google-api-key", regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`)},
	{"github-token", regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36}`)},
	{"private-key", regexp.MustCompile(`-----BEGIN (?:RSA |DSA |EC |OPENSSH )?PRIVATE KEY-----`)},
}

// personalRules only apply to log output.
var personalRules = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), "[IP]"},
	{regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`), "[EMAIL]"},
}

// Redactor implements ports.Redactor with the built-in rules.
type Redactor struct {
	rules []rule
}

// NewRedactor returns a Redactor using every built-in rule.
func NewRedactor() *Redactor {
	return &Redactor{rules: secretRules}
}

// Redact replaces secrets in text with Placeholder.
func (r *Redactor) Redact(text string) string {
	for _, rl := range r.rules {
		text = rl.re.ReplaceAllString(text, Placeholder)
	}
	return text
}

// RedactLog also hides IP and email addresses.
func (r *Redactor) RedactLog(text string) string {
	text = r.Redact(text)
	for _, p := range personalRules {
		text = p.re.ReplaceAllString(text, p.replacement)
	}
	return text
}

// Contains reports whether text holds anything Redact would remove.
func (r *Redactor) Contains(text string) bool {
	for _, rl := range r.rules {
		if rl.re.MatchString(text) {
			return true
		}
	}
	return false
}

// Kinds lists the classes of secret Redact would remove from text, sorted.
func (r *Redactor) Kinds(text string) []string {
	seen := map[string]bool{}
	for _, rl := range r.rules {
		if rl.re.MatchString(text) {
			seen[rl.kind] = true
			text = rl.re.ReplaceAllString(text, Placeholder)
		}
	}
	kinds := make([]string, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// CountRedactions returns how many placeholders redaction introduced.
func CountRedactions(original, redacted string) int {
	if original == redacted {
		return 0
	}
	return max(0, strings.Count(redacted, Placeholder)-strings.Count(original, Placeholder))
}

// SummarizeRedactions describes what was redacted.
func SummarizeRedactions(original, redacted string) string {
	n := CountRedactions(original, redacted)
	if n == 0 {
		return "no redactions"
	}
	return "removed " + strconv.Itoa(n) + " secret(s)"
}
