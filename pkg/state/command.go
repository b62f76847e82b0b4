package state

import (
	"errors"
	"fmt"
)

// CommandType names an external input to the engine.
type CommandType string

const (
	CmdStartConversation CommandType = "start_conversation"
	CmdAdvance           CommandType = "advance"
	CmdToggleAuto        CommandType = "toggle_auto"
	CmdMakeChoice        CommandType = "make_choice"
	CmdResetScene        CommandType = "reset_scene"
)

var ErrUnknownCommand = errors.New("unknown command")

// Command is one queued input. SceneID is read only by start_conversation and
// ChoiceIndex only by make_choice, which requires it.
type Command struct {
	Type        CommandType `json:"type"`
	SceneID     string      `json:"scene_id,omitempty"`
	ChoiceIndex *int        `json:"choice_index,omitempty"`
}

func StartCommand(sceneID string) Command {
	return Command{Type: CmdStartConversation, SceneID: sceneID}
}

func ChoiceCommand(index int) Command {
	return Command{Type: CmdMakeChoice, ChoiceIndex: &index}
}

// Validate checks that the command is one the engine understands. It does not
// check the command against the current conversation.
func (c Command) Validate() error {
	switch c.Type {
	case CmdStartConversation:
		if c.SceneID == "" {
			return fmt.Errorf("%s: scene_id is required", c.Type)
		}
		return nil
	case CmdMakeChoice:
		if c.ChoiceIndex == nil {
			return fmt.Errorf("%s: choice_index is required", c.Type)
		}
		if *c.ChoiceIndex < 0 {
			return fmt.Errorf("%s: choice_index must be >= 0, got %d", c.Type, *c.ChoiceIndex)
		}
		return nil
	case CmdAdvance, CmdToggleAuto, CmdResetScene:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Type)
	}
}
