package state

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

var (
	ErrConversationActive = errors.New("conversation is active")
	ErrNoScript           = errors.New("no dialogue script")
	ErrNoStage            = errors.New("no stage")
)

// Stage is the scene the engine frames and resets.
type Stage interface {
	SpeakerPosition(name string) (scene.Vec3, bool)
	CameraFraming() (scene.Transform, bool)
	FrameCamera(cue scene.CameraCue)
	RestoreCamera(t scene.Transform)
	ResetActors()
}

// TriggerSink receives triggers in the order they are emitted.
type TriggerSink interface {
	Dispatch(triggers ...dialogue.Trigger) int
}

// System is per-tick work that runs after dialogue has been processed, such as
// movement toward goals installed by triggers.
type System interface {
	Update(dt time.Duration)
}

type SystemFunc func(dt time.Duration)

func (f SystemFunc) Update(dt time.Duration) { f(dt) }

// Config wires an Engine. Script and Stage are required.
type Config struct {
	Script     dialogue.Script
	Stage      Stage
	Triggers   TriggerSink // nil drops every trigger
	PlayerName string
	Logger     *slog.Logger
	Observers  []Observer
	Systems    []System
}

// Engine owns the conversation, the transcript and the auto-advance timer.
// It is not safe for concurrent use; drive it from one goroutine.
type Engine struct {
	script     dialogue.Script
	stage      Stage
	triggers   TriggerSink
	playerName string
	logger     *slog.Logger
	observers  []Observer
	systems    []System

	conv    Conversation
	log     Log
	timer   AutoTimer
	pending []Command
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Script == nil {
		return nil, ErrNoScript
	}
	if cfg.Stage == nil {
		return nil, ErrNoStage
	}
	if cfg.PlayerName == "" {
		cfg.PlayerName = DefaultPlayerName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		script:     cfg.Script,
		stage:      cfg.Stage,
		triggers:   cfg.Triggers,
		playerName: cfg.PlayerName,
		logger:     cfg.Logger,
		observers:  append([]Observer(nil), cfg.Observers...),
		systems:    append([]System(nil), cfg.Systems...),
	}, nil
}

func (e *Engine) mustInit() {
	if e == nil || e.script == nil {
		panic("state: Engine used without NewEngine")
	}
}

// Subscribe adds an observer for every later effect.
func (e *Engine) Subscribe(o Observer) {
	e.mustInit()
	e.observers = append(e.observers, o)
}

// Submit queues a command for the next Tick.
func (e *Engine) Submit(cmd Command) {
	e.mustInit()
	e.pending = append(e.pending, cmd)
}

// Pending returns the number of queued commands.
func (e *Engine) Pending() int {
	e.mustInit()
	return len(e.pending)
}

// Tick runs one frame: queued commands in arrival order, then the auto-advance
// timer, then the registered systems.
func (e *Engine) Tick(dt time.Duration) {
	e.mustInit()

	queued := e.pending
	e.pending = nil
	for _, cmd := range queued {
		e.Apply(cmd)
	}

	c := &e.conv
	if c.Active && c.AutoMode && !c.WaitingForChoice && e.timer.Tick(dt) {
		e.logger.Debug("auto-advance timer expired", "scene", c.Scene, "line", c.Line)
		e.Advance()
	}

	for _, sys := range e.systems {
		sys.Update(dt)
	}
}

// Apply runs a command immediately. Unknown commands are logged and ignored.
func (e *Engine) Apply(cmd Command) {
	e.mustInit()
	switch cmd.Type {
	case CmdStartConversation:
		e.StartConversation(cmd.SceneID)
	case CmdAdvance:
		e.Advance()
	case CmdToggleAuto:
		e.ToggleAuto()
	case CmdMakeChoice:
		if cmd.ChoiceIndex == nil {
			e.logger.Warn("ignoring make_choice without choice_index")
			return
		}
		e.MakeChoice(*cmd.ChoiceIndex)
	case CmdResetScene:
		e.ResetScene()
	default:
		e.logger.Warn("ignoring unknown command", "type", cmd.Type)
	}
}

// StartConversation begins playback at line 0 of sceneID and shows the first
// line. It is ignored while a conversation is already running. A scene that
// does not exist ends the conversation straight away.
func (e *Engine) StartConversation(sceneID string) {
	e.mustInit()
	c := &e.conv
	if c.Active {
		e.logger.Debug("start ignored, conversation already active", "scene", c.Scene)
		return
	}

	c.OriginalFraming = nil
	if framing, ok := e.stage.CameraFraming(); ok {
		c.OriginalFraming = &framing
	}
	c.RunID = uuid.New()
	c.Active = true
	c.Scene = sceneID
	c.Line = 0
	c.WaitingForChoice = false
	c.Choices = nil
	c.Ephemeral = nil
	e.timer.Disarm()

	logger.WithRunID(e.logger, c.RunID.String()).Info("conversation started", "scene", sceneID)
	e.notify(Effect{Type: EffectConversationStarted, Scene: sceneID})
	e.Advance()
}

// Advance shows the next line. A pending player line goes first; otherwise
// the script line at the cursor is shown, its triggers fire, and the cursor
// moves on unless the line offers choices. Past the end of the scene the
// conversation ends. Advance does nothing while inactive or waiting for a
// choice.
func (e *Engine) Advance() {
	e.mustInit()
	c := &e.conv
	if !c.Active || c.WaitingForChoice {
		return
	}
	e.timer.Disarm()

	if c.Ephemeral != nil {
		line := *c.Ephemeral
		c.Ephemeral = nil
		e.show(line)
		e.armFor(line)
		return
	}

	line, ok := e.script.LineAt(c.Scene, c.Line)
	if !ok {
		e.end()
		return
	}

	e.show(line)
	e.emit(line.Triggers)
	if line.HasChoices() {
		c.WaitingForChoice = true
		c.Choices = append([]dialogue.Choice(nil), line.Choices...)
		return
	}
	e.armFor(line)
	c.Line++
}

// MakeChoice picks one of the pending options. The player's line is shown
// next, then playback continues at the choice's next_scene, its next_line, or
// the line after the prompt. Out-of-range indices and calls while not waiting
// are ignored.
func (e *Engine) MakeChoice(index int) {
	e.mustInit()
	c := &e.conv
	if !c.WaitingForChoice {
		e.logger.Debug("choice ignored, not waiting", "index", index)
		return
	}
	if index < 0 || index >= len(c.Choices) {
		e.logger.Debug("choice ignored, out of range", "index", index, "options", len(c.Choices))
		return
	}

	choice := c.Choices[index]
	entry := e.log.appendChoice(c.Choices, index)
	e.notify(Effect{Type: EffectChoice, Scene: c.Scene, Entry: &entry})
	e.emit(choice.Triggers)

	speaker := e.playerName
	c.Ephemeral = &dialogue.Line{
		Speaker:      speaker,
		Text:         choice.SpokenText(),
		AutoTime:     choice.PlayerTextAutoTime,
		CameraTarget: &speaker,
	}

	switch {
	case choice.NextScene != nil:
		c.Scene = *choice.NextScene
		c.Line = 0
	case choice.NextLine != nil:
		c.Line = *choice.NextLine
	default:
		c.Line++
	}
	c.WaitingForChoice = false
	c.Choices = nil

	e.Advance()
}

// ToggleAuto flips auto mode. It never arms the timer by itself; the next
// line shown decides that.
func (e *Engine) ToggleAuto() {
	e.mustInit()
	e.conv.AutoMode = !e.conv.AutoMode
	e.logger.Debug("auto mode toggled", "auto_mode", e.conv.AutoMode)
	e.notify(Effect{Type: EffectAutoToggled, Scene: e.conv.Scene})
}

// ResetScene puts actors back where they spawned. Conversation state is untouched.
func (e *Engine) ResetScene() {
	e.mustInit()
	e.stage.ResetActors()
	e.logger.Debug("scene reset")
}

// SetScript swaps the dialogue script. It is refused while a conversation runs.
func (e *Engine) SetScript(s dialogue.Script) error {
	e.mustInit()
	if s == nil {
		return ErrNoScript
	}
	if e.conv.Active {
		return ErrConversationActive
	}
	e.script = s
	return nil
}

// Script returns the script in use.
func (e *Engine) Script() dialogue.Script {
	e.mustInit()
	return e.script
}

// Conversation returns a copy of the current conversation state.
func (e *Engine) Conversation() Conversation {
	e.mustInit()
	return e.conv.clone()
}

// Log returns a copy of the transcript.
func (e *Engine) Log() []LogEntry {
	e.mustInit()
	return e.log.Entries()
}

// LogSince returns the entries after the first n.
func (e *Engine) LogSince(n int) []LogEntry {
	e.mustInit()
	return e.log.Since(n)
}

// Transcript renders the log as plain text.
func (e *Engine) Transcript() string {
	e.mustInit()
	return e.log.Transcript()
}

// Timer reports whether auto-advance is armed and how long it has left.
func (e *Engine) Timer() (time.Duration, bool) {
	e.mustInit()
	return e.timer.Remaining(), e.timer.Armed()
}

func (e *Engine) show(line dialogue.Line) {
	c := &e.conv
	c.Speaker = line.Speaker
	c.Text = line.Text
	entry := e.log.appendLine(line.Speaker, line.Text)
	e.notify(Effect{Type: EffectLine, Scene: c.Scene, Entry: &entry})
	e.frame(line)
}

func (e *Engine) frame(line dialogue.Line) {
	name, ok := line.CameraTargetName()
	if !ok {
		return
	}
	pos, ok := e.stage.SpeakerPosition(name)
	if !ok {
		e.logger.Debug("camera target not on stage", "name", name)
		return
	}
	cue := scene.FrameSubject(pos)
	e.stage.FrameCamera(cue)
	e.notify(Effect{Type: EffectCameraFramed, Scene: e.conv.Scene, Camera: &cue})
}

func (e *Engine) armFor(line dialogue.Line) {
	if !e.conv.AutoMode {
		return
	}
	if d, ok := line.AutoDuration(); ok {
		e.timer.Arm(d)
	}
}

func (e *Engine) emit(triggers []dialogue.Trigger) {
	for i := range triggers {
		t := triggers[i]
		e.notify(Effect{Type: EffectTriggerEmitted, Scene: e.conv.Scene, Trigger: &t})
	}
	if e.triggers != nil && len(triggers) > 0 {
		e.triggers.Dispatch(triggers...)
	}
}

func (e *Engine) end() {
	c := &e.conv
	if c.OriginalFraming != nil {
		e.stage.RestoreCamera(*c.OriginalFraming)
	}
	sceneID := c.Scene
	c.Active = false
	c.WaitingForChoice = false
	c.Choices = nil
	c.Ephemeral = nil
	c.Speaker = ""
	c.Text = ""
	e.timer.Disarm()

	logger.WithRunID(e.logger, c.RunID.String()).Info("conversation ended", "scene", sceneID)
	e.notify(Effect{Type: EffectConversationEnded, Scene: sceneID})
}

func (e *Engine) notify(eff Effect) {
	eff.RunID = e.conv.RunID
	eff.AutoMode = e.conv.AutoMode
	for _, o := range e.observers {
		o.Observe(eff)
	}
}
