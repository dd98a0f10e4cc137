package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/chuckie/autocommit/internal/app"
)

// resultJSON is the -o json shape of a generation flow.
type resultJSON struct {
	Success     bool   `json:"success"`
	Outcome     string `json:"outcome"`
	Provider    string `json:"provider,omitempty"`
	Language    string `json:"language,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Commit      string `json:"commit,omitempty"`
	Pushed      bool   `json:"pushed,omitempty"`
}

func resultOutput(res app.Result) resultJSON {
	return resultJSON{
		Success:     res.Outcome == app.OutcomeCommitted || res.Outcome == app.OutcomePreviewed,
		Outcome:     res.Outcome.String(),
		Provider:    res.Provider,
		Language:    res.Language,
		Title:       res.Message.Title,
		Description: res.Message.Description,
		Commit:      res.CommitID,
		Pushed:      res.Pushed,
	}
}

// errorJSON is printed on stdout when a command fails under -o json.
type errorJSON struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"exit_code"`
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
