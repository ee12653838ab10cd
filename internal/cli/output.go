// Package cli formats answers and failures for the medqa command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperjump/medqa/internal/llm"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/pkg/utils"
)

// OutputFormat is the format for answer output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
	}
}

// WriteAnswer writes res to w. Text output lists each source with a preview cut to previewChars.
func WriteAnswer(w io.Writer, res *models.QueryResult, format OutputFormat, previewChars int) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintf(w, "\n%s\n\n", res.Answer)
	fmt.Fprintf(w, "Answered in %dms using %d retrieved chunks\n", res.DurationMs, len(res.RetrievedChunks))
	for i, ch := range res.RetrievedChunks {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] %s\n", i+1, ch.Source)
		fmt.Fprintf(w, "%s\n", utils.Truncate(ch.Text, previewChars))
	}
	fmt.Fprintln(w)
	return nil
}

type failure struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// WriteFailure writes a failed answer call. The wording never resembles a model answer, so a
// transient failure is not mistaken for "I don't know."
func WriteFailure(w io.Writer, err error, format OutputFormat) error {
	f := failure{Error: err.Error(), Message: FailureMessage(err), Retryable: models.IsRetryable(err)}
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	}
	_, werr := fmt.Fprintf(w, "No answer: %s\n(%s)\n", f.Message, f.Error)
	return werr
}

// FailureMessage returns a short explanation of why no answer was produced.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrBusy):
		return "Another question is still being answered. Please retry."
	case errors.Is(err, models.ErrEmptyQuestion):
		return "Please type a question."
	case errors.Is(err, models.ErrEmptyIndex):
		return "The document index is empty. Check the corpus directory."
	case errors.Is(err, models.ErrInvalidK):
		return "The index holds fewer chunks than retrieval.top_k. Lower top_k or add documents."
	default:
		return llm.Describe(err)
	}
}
