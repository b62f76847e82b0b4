package state

import (
	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

// EffectType identifies something observable the engine did.
type EffectType string

const (
	EffectConversationStarted EffectType = "conversation.started"
	EffectLine                EffectType = "dialogue.line"
	EffectChoice              EffectType = "dialogue.choice"
	EffectCameraFramed        EffectType = "camera.framed"
	EffectTriggerEmitted      EffectType = "trigger.emitted"
	EffectAutoToggled         EffectType = "auto.toggled"
	EffectConversationEnded   EffectType = "conversation.ended"
)

// Effect is reported to observers after the engine has applied it.
type Effect struct {
	Type     EffectType        `json:"type"`
	RunID    uuid.UUID         `json:"run_id"`
	Scene    string            `json:"scene,omitempty"`
	Entry    *LogEntry         `json:"entry,omitempty"`
	Camera   *scene.CameraCue  `json:"camera,omitempty"`
	Trigger  *dialogue.Trigger `json:"trigger,omitempty"`
	AutoMode bool              `json:"auto_mode"`
}

// Observer receives effects synchronously on the engine's goroutine, so
// implementations must not block or call back into the engine.
type Observer interface {
	Observe(Effect)
}

type ObserverFunc func(Effect)

func (f ObserverFunc) Observe(e Effect) { f(e) }
