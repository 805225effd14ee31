// Package definition loads the <selfassessment> authoring format into
// workflow configuration. Malformed definitions fail at load time, at
// the author's desk, never at student runtime.
package definition

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/coursekit/coursekit/internal/selfassess"
)

const (
	DefaultMaxAttempts = 1
	DefaultMaxScore    = 3
)

// inner captures a child element's raw markup so prompts and rubrics can
// carry HTML-ish content untouched.
type inner struct {
	Raw string `xml:",innerxml"`
}

type selfAssessmentXML struct {
	XMLName       xml.Name `xml:"selfassessment"`
	MaxAttempts   *int     `xml:"max_attempts,attr"`
	MaxScore      *int     `xml:"max_score,attr"`
	Prompt        []inner  `xml:"prompt"`
	Rubric        []inner  `xml:"rubric"`
	SubmitMessage []inner  `xml:"submitmessage"`
	HintPrompt    []inner  `xml:"hintprompt"`
}

// Parse validates and converts a definition document. submitmessage and
// hintprompt must each appear exactly once; prompt and rubric at most
// once (they default to empty when the unit inherits them elsewhere).
func Parse(data []byte) (selfassess.Config, error) {
	var doc selfAssessmentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return selfassess.Config{}, fmt.Errorf("parse selfassessment definition: %w", err)
	}

	for _, req := range []struct {
		tag  string
		seen int
	}{
		{"submitmessage", len(doc.SubmitMessage)},
		{"hintprompt", len(doc.HintPrompt)},
	} {
		if req.seen != 1 {
			return selfassess.Config{}, fmt.Errorf(
				"selfassessment definition must include exactly one %q tag, found %d", req.tag, req.seen)
		}
	}
	for _, opt := range []struct {
		tag  string
		seen int
	}{
		{"prompt", len(doc.Prompt)},
		{"rubric", len(doc.Rubric)},
	} {
		if opt.seen > 1 {
			return selfassess.Config{}, fmt.Errorf(
				"selfassessment definition must include at most one %q tag, found %d", opt.tag, opt.seen)
		}
	}

	cfg := selfassess.Config{
		SubmitMessage: text(doc.SubmitMessage),
		HintPrompt:    text(doc.HintPrompt),
		Prompt:        text(doc.Prompt),
		Rubric:        text(doc.Rubric),
		MaxAttempts:   DefaultMaxAttempts,
		MaxScore:      DefaultMaxScore,
	}
	if doc.MaxAttempts != nil {
		if *doc.MaxAttempts < 0 {
			return selfassess.Config{}, fmt.Errorf("max_attempts must be >= 0, got %d", *doc.MaxAttempts)
		}
		cfg.MaxAttempts = *doc.MaxAttempts
	}
	if doc.MaxScore != nil {
		if *doc.MaxScore <= 0 {
			return selfassess.Config{}, fmt.Errorf("max_score must be > 0, got %d", *doc.MaxScore)
		}
		cfg.MaxScore = *doc.MaxScore
	}
	return cfg, nil
}

func text(elems []inner) string {
	if len(elems) == 0 {
		return ""
	}
	return strings.TrimSpace(elems[0].Raw)
}
