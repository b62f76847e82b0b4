package state

import (
	"time"

	"github.com/google/uuid"
)

// View is what a presentation layer draws: the current line, the options on
// offer and the auto-mode flag.
type View struct {
	RunID            uuid.UUID `json:"run_id"`
	Phase            Phase     `json:"phase"`
	Active           bool      `json:"active"`
	Scene            string    `json:"scene,omitempty"`
	Line             int       `json:"line"`
	Speaker          string    `json:"speaker"`
	Text             string    `json:"text"`
	WaitingForChoice bool      `json:"waiting_for_choice"`
	Choices          []string  `json:"choices,omitempty"`
	AutoMode         bool      `json:"auto_mode"`
	AutoRemaining    float64   `json:"auto_remaining,omitempty"` // seconds, while armed
	LogLength        int       `json:"log_length"`
}

// View snapshots the engine for display.
func (e *Engine) View() View {
	e.mustInit()
	c := e.conv
	v := View{
		RunID:            c.RunID,
		Phase:            c.Phase(),
		Active:           c.Active,
		Scene:            c.Scene,
		Line:             c.Line,
		Speaker:          c.Speaker,
		Text:             c.Text,
		WaitingForChoice: c.WaitingForChoice,
		AutoMode:         c.AutoMode,
		LogLength:        e.log.Len(),
	}
	for _, ch := range c.Choices {
		v.Choices = append(v.Choices, ch.Text)
	}
	if e.timer.Armed() {
		v.AutoRemaining = e.timer.Remaining().Round(time.Millisecond).Seconds()
	}
	return v
}
