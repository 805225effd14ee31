package selfassess

// Record is one entry in a workflow's attempt history. Score is set only
// after Answer, Hint only after Score; records are never deleted
// individually (reset preserves the whole history).
type Record struct {
	Answer string  `json:"answer"`
	Score  *int    `json:"score,omitempty"`
	Hint   *string `json:"hint,omitempty"`
}

// History is the append-only, insertion-ordered attempt log. The workflow
// only ever queries the most recent record; older records are retained
// for audit display.
type History []Record

// Append starts a new record with the submitted answer and empty
// score/hint.
func (h *History) Append(answer string) {
	*h = append(*h, Record{Answer: answer})
}

// SetLatestScore records the self-assessed score on the most recent
// record.
func (h History) SetLatestScore(score int) {
	if len(h) == 0 {
		return
	}
	h[len(h)-1].Score = &score
}

// SetLatestHint records the hint on the most recent record.
func (h History) SetLatestHint(hint string) {
	if len(h) == 0 {
		return
	}
	h[len(h)-1].Hint = &hint
}

// Latest returns the most recent record.
func (h History) Latest() (Record, bool) {
	if len(h) == 0 {
		return Record{}, false
	}
	return h[len(h)-1], true
}

// LatestAnswer returns the most recent answer, or "" if none was ever
// submitted.
func (h History) LatestAnswer() string {
	if r, ok := h.Latest(); ok {
		return r.Answer
	}
	return ""
}

func (h History) LatestScore() (int, bool) {
	if r, ok := h.Latest(); ok && r.Score != nil {
		return *r.Score, true
	}
	return 0, false
}

func (h History) LatestHint() (string, bool) {
	if r, ok := h.Latest(); ok && r.Hint != nil {
		return *r.Hint, true
	}
	return "", false
}
