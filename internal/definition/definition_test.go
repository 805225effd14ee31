package definition

import (
	"strings"
	"testing"
)

const goodDoc = `
<selfassessment max_attempts="2" max_score="3">
  <prompt>Explain <b>photosynthesis</b>.</prompt>
  <rubric>3: complete, 1: partial</rubric>
  <submitmessage>Save successful. Thanks for participating!</submitmessage>
  <hintprompt>What hint about this problem would you give to someone?</hintprompt>
</selfassessment>`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(goodDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Prompt != "Explain <b>photosynthesis</b>." {
		t.Fatalf("prompt = %q", cfg.Prompt)
	}
	if cfg.Rubric != "3: complete, 1: partial" {
		t.Fatalf("rubric = %q", cfg.Rubric)
	}
	if cfg.SubmitMessage != "Save successful. Thanks for participating!" {
		t.Fatalf("submitmessage = %q", cfg.SubmitMessage)
	}
	if !strings.HasPrefix(cfg.HintPrompt, "What hint") {
		t.Fatalf("hintprompt = %q", cfg.HintPrompt)
	}
	if cfg.MaxAttempts != 2 || cfg.MaxScore != 3 {
		t.Fatalf("attrs: max_attempts=%d max_score=%d", cfg.MaxAttempts, cfg.MaxScore)
	}
}

func TestParseDefaults(t *testing.T) {
	doc := `<selfassessment>
  <submitmessage>Saved.</submitmessage>
  <hintprompt>Any hints?</hintprompt>
</selfassessment>`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.MaxAttempts != DefaultMaxAttempts || cfg.MaxScore != DefaultMaxScore {
		t.Fatalf("defaults: %d/%d", cfg.MaxAttempts, cfg.MaxScore)
	}
	if cfg.Prompt != "" || cfg.Rubric != "" {
		t.Fatalf("inherited fields should default empty: %q %q", cfg.Prompt, cfg.Rubric)
	}
}

func TestParseRejectsMissingOrDuplicateFields(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing submitmessage", `<selfassessment><hintprompt>h</hintprompt></selfassessment>`},
		{"missing hintprompt", `<selfassessment><submitmessage>m</submitmessage></selfassessment>`},
		{"duplicate submitmessage", `<selfassessment>
			<submitmessage>a</submitmessage><submitmessage>b</submitmessage>
			<hintprompt>h</hintprompt></selfassessment>`},
		{"duplicate hintprompt", `<selfassessment>
			<submitmessage>m</submitmessage>
			<hintprompt>a</hintprompt><hintprompt>b</hintprompt></selfassessment>`},
		{"duplicate prompt", `<selfassessment>
			<prompt>p1</prompt><prompt>p2</prompt>
			<submitmessage>m</submitmessage><hintprompt>h</hintprompt></selfassessment>`},
		{"negative max_attempts", `<selfassessment max_attempts="-1">
			<submitmessage>m</submitmessage><hintprompt>h</hintprompt></selfassessment>`},
		{"zero max_score", `<selfassessment max_score="0">
			<submitmessage>m</submitmessage><hintprompt>h</hintprompt></selfassessment>`},
		{"not xml", `{"submitmessage": "m"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Parse([]byte(c.doc)); err == nil {
				t.Fatalf("no error for %s", c.name)
			}
		})
	}
}
