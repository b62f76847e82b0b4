package state

import (
	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

// DefaultPlayerName speaks the player's chosen lines when no name is configured.
const DefaultPlayerName = "Joe Swanson"

// Phase is the coarse state of the conversation.
type Phase string

const (
	PhaseInactive         Phase = "inactive"
	PhaseDisplaying       Phase = "displaying"
	PhaseWaitingForChoice Phase = "waiting_for_choice"
)

// Conversation is where playback is. Only the Engine mutates it.
type Conversation struct {
	RunID            uuid.UUID         `json:"run_id"` // new for every StartConversation
	Active           bool              `json:"active"`
	Scene            string            `json:"scene"`
	Line             int               `json:"line"` // index of the next script line to show
	WaitingForChoice bool              `json:"waiting_for_choice"`
	Choices          []dialogue.Choice `json:"choices,omitempty"` // set only while waiting
	AutoMode         bool              `json:"auto_mode"`         // survives scene changes and conversation end
	Ephemeral        *dialogue.Line    `json:"ephemeral,omitempty"`
	OriginalFraming  *scene.Transform  `json:"original_framing,omitempty"` // camera at StartConversation
	Speaker          string            `json:"speaker"`
	Text             string            `json:"text"`
}

// Phase derives the state machine position from the flags.
func (c Conversation) Phase() Phase {
	switch {
	case !c.Active:
		return PhaseInactive
	case c.WaitingForChoice:
		return PhaseWaitingForChoice
	default:
		return PhaseDisplaying
	}
}

// clone returns a copy that shares nothing mutable with c.
func (c Conversation) clone() Conversation {
	out := c
	if c.Choices != nil {
		out.Choices = append([]dialogue.Choice(nil), c.Choices...)
	}
	if c.Ephemeral != nil {
		l := *c.Ephemeral
		out.Ephemeral = &l
	}
	if c.OriginalFraming != nil {
		f := *c.OriginalFraming
		out.OriginalFraming = &f
	}
	return out
}
