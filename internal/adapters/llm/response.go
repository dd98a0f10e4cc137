package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/chuckie/autocommit/internal/domain"
)

// ErrMalformedResponse is returned when a model reply is not a usable
// {"title", "description"} object.
var ErrMalformedResponse = errors.New("malformed model response")

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseCommitMessage extracts a commit message from a raw model reply. The
// reply may be bare JSON or JSON inside a ``` fence with an optional json
// tag. Both keys must be present with string values and the title must not
// be empty.
func ParseCommitMessage(raw string) (domain.CommitMessage, error) {
	body := extractJSON(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return domain.CommitMessage{}, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedResponse, err)
	}

	title, err := stringField(fields, "title")
	if err != nil {
		return domain.CommitMessage{}, err
	}
	description, err := stringField(fields, "description")
	if err != nil {
		return domain.CommitMessage{}, err
	}

	msg := domain.CommitMessage{Title: title, Description: description}
	msg.Normalize()
	if err := msg.Validate(); err != nil {
		return domain.CommitMessage{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return msg, nil
}

// extractJSON returns the body of the first fenced {...} block, or the
// trimmed reply when there is none.
func extractJSON(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return strings.TrimSpace(raw)
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	v, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedResponse, key)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("%w: %q is not a string", ErrMalformedResponse, key)
	}
	return s, nil
}
