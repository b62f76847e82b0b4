package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/dialogue-engine/internal/session"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

// ConsoleUI is the BubbleTea model that runs the UI. It owns the engine and
// ticks it on every frame, so all engine access happens inside Update.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	engine     *state.Engine
	stage      *scene.Registry
	startScene string
	tickRate   time.Duration
	lastFrame  time.Time
	logger     *slog.Logger

	changes <-chan string
	load    session.ScriptLoader
	parked  dialogue.Script
	copy    func(string) error

	dialogueViewport viewport.Model
	logViewport      viewport.Model
	stageViewport    viewport.Model
	showLog          bool
	showQuitModal    bool
	status           string
	ready            bool
	width            int
	height           int
}

type frameMsg time.Time

type scriptChangedMsg struct {
	path string
}

type scriptLoadedMsg struct {
	path   string
	script dialogue.Script
	err    error
}

type copiedMsg struct {
	entries int
	err     error
}

var (
	dialoguePanelStyle = lipgloss.NewStyle().
				PaddingTop(1).
				PaddingLeft(3).
				PaddingRight(1)

	sidePanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	autoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

type UIOptions struct {
	StartScene string
	TickRate   time.Duration
	Logger     *slog.Logger
	Changes    <-chan string        // nil disables hot reload
	Load       session.ScriptLoader // required when Changes is set
	Copy       func(string) error   // defaults to the system clipboard
}

func NewConsoleUI(engine *state.Engine, stage *scene.Registry, opts UIOptions) ConsoleUI {
	if opts.TickRate <= 0 {
		opts.TickRate = session.DefaultTickRate
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	return ConsoleUI{
		engine:           engine,
		stage:            stage,
		startScene:       opts.StartScene,
		tickRate:         opts.TickRate,
		logger:           opts.Logger,
		changes:          opts.Changes,
		load:             opts.Load,
		copy:             opts.Copy,
		dialogueViewport: viewport.New(50, 20),
		logViewport:      viewport.New(30, 20),
		stageViewport:    viewport.New(30, 20),
		status:           "Press T to start.",
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(frame(m.tickRate), waitForChange(m.changes))
}

func frame(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func waitForChange(changes <-chan string) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-changes
		if !ok {
			return nil
		}
		return scriptChangedMsg{path: path}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refresh()
		return m, nil

	case frameMsg:
		now := time.Time(msg)
		var dt time.Duration
		if !m.lastFrame.IsZero() {
			dt = now.Sub(m.lastFrame)
		}
		m.lastFrame = now
		m.engine.Tick(dt)
		if m.parked != nil && !m.engine.View().Active {
			m.applyScript(m.parked)
		}
		m.refresh()
		return m, frame(m.tickRate)

	case scriptChangedMsg:
		return m, tea.Batch(m.loadScript(msg.path), waitForChange(m.changes))

	case scriptLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("Script reload rejected, keeping current script", "path", msg.path, "error", msg.err)
			m.status = errorStyle.Render("Reload failed: " + msg.err.Error())
			return m, nil
		}
		m.applyScript(msg.script)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("Copy failed: " + msg.err.Error())
		} else {
			m.status = fmt.Sprintf("Copied %d log entries to the clipboard.", msg.entries)
		}
		return m, nil

	case tea.KeyMsg:
		if m.showQuitModal {
			return m.updateQuitModal(msg)
		}
		return m.handleKey(msg)
	}

	var vpCmd, lgCmd tea.Cmd
	m.dialogueViewport, vpCmd = m.dialogueViewport.Update(msg)
	m.logViewport, lgCmd = m.logViewport.Update(msg)
	return m, tea.Batch(vpCmd, lgCmd)
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.engine.View()

	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	case tea.KeyEnter, tea.KeySpace:
		m.engine.Submit(state.Command{Type: state.CmdAdvance})
		return m, nil
	}

	key := msg.String()
	switch key {
	case "q":
		m.showQuitModal = true
	case "a":
		m.engine.Submit(state.Command{Type: state.CmdToggleAuto})
	case "t":
		if view.Active {
			m.status = "A conversation is already running."
			return m, nil
		}
		m.engine.Submit(state.StartCommand(m.startScene))
		m.status = ""
	case "r":
		m.engine.Submit(state.Command{Type: state.CmdResetScene})
		m.status = "Scene reset."
	case "l":
		m.showLog = !m.showLog
		m.layout()
		m.refresh()
	case "c":
		return m, m.copyTranscript()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if view.WaitingForChoice {
			m.engine.Submit(state.ChoiceCommand(int(key[0] - '1')))
		}
	}
	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEnter:
		return m, tea.Quit
	case tea.KeyEsc:
		m.showQuitModal = false
		return m, nil
	}
	switch msg.String() {
	case "y", "Y", "q":
		return m, tea.Quit
	case "n", "N":
		m.showQuitModal = false
	}
	return m, nil
}

func (m *ConsoleUI) applyScript(script dialogue.Script) {
	err := m.engine.SetScript(script)
	switch {
	case err == nil:
		m.parked = nil
		m.logger.Info("Script reloaded", "scenes", len(script))
		m.status = fmt.Sprintf("Script reloaded (%d scenes).", len(script))
	case errors.Is(err, state.ErrConversationActive):
		m.parked = script
		m.status = "Script changed; it will load when this conversation ends."
	default:
		m.status = errorStyle.Render("Reload failed: " + err.Error())
	}
}

func (m ConsoleUI) loadScript(path string) tea.Cmd {
	load := m.load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		script, err := load(ctx, path)
		return scriptLoadedMsg{path: path, script: script, err: err}
	}
}

func (m ConsoleUI) copyTranscript() tea.Cmd {
	entries := m.engine.Log()
	text := state.FormatTranscript(entries)
	copyFn := m.copy
	return func() tea.Msg {
		return copiedMsg{entries: len(entries), err: copyFn(text)}
	}
}

func (m *ConsoleUI) layout() {
	sideWidth := 0
	if m.width > 0 {
		sideWidth = m.width / 3
	}
	mainWidth := m.width - sideWidth - 6
	if mainWidth < 20 {
		mainWidth = 20
	}
	m.dialogueViewport.Width = mainWidth
	m.dialogueViewport.Height = max(m.height-3, 5)

	m.stageViewport.Width = max(sideWidth-2, 10)
	m.logViewport.Width = max(sideWidth-2, 10)
	if m.showLog {
		m.stageViewport.Height = max(m.height/3, 5)
		m.logViewport.Height = max(m.height-m.stageViewport.Height-4, 5)
	} else {
		m.stageViewport.Height = max(m.height-3, 5)
	}
}

func (m *ConsoleUI) refresh() {
	m.dialogueViewport.SetContent(renderDialogue(m.engine.View(), m.dialogueViewport.Width, m.status))
	m.stageViewport.SetContent(renderStage(m.stage))
	if m.showLog {
		m.logViewport.SetContent(renderLog(m.engine.Log(), m.logViewport.Width))
		m.logViewport.GotoBottom()
	}
}

func renderDialogue(v state.View, width int, status string) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("DIALOGUE ENGINE"))
	if v.AutoMode {
		content.WriteString("  " + autoStyle.Render("[AUTO]"))
	}
	content.WriteString("\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-4, 1))) + "\n\n")

	if !v.Active {
		content.WriteString(promptStyle.Render("No conversation running.") + "\n\n")
	} else {
		content.WriteString(speakerStyle.Render(v.Speaker+":") + "\n")
		content.WriteString(wordwrap.String(v.Text, max(width-4, 10)) + "\n\n")

		if v.WaitingForChoice {
			for i, c := range v.Choices {
				content.WriteString(choiceStyle.Render(fmt.Sprintf("%d. ", i+1)) + wordwrap.String(c, max(width-7, 10)) + "\n")
			}
			content.WriteString("\n")
		} else if v.AutoRemaining > 0 && v.AutoMode {
			content.WriteString(promptStyle.Render(fmt.Sprintf("next line in %.1fs", v.AutoRemaining)) + "\n\n")
		}
	}

	if status != "" {
		content.WriteString(status + "\n\n")
	}
	content.WriteString(promptStyle.Render("Space/Enter next • 1-9 choose • A auto • T start • R reset • L log • C copy • Q quit"))
	return content.String()
}

func renderStage(r *scene.Registry) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("STAGE") + "\n\n")

	if cam, ok := r.CameraFraming(); ok {
		content.WriteString("Camera:\n")
		content.WriteString(formatVec(cam.Position) + "\n\n")
	}

	actors := r.Actors()
	if len(actors) == 0 {
		content.WriteString("Actors:\nNone\n")
		return content.String()
	}
	content.WriteString("Actors:\n")
	for _, e := range actors {
		pos, _ := r.Position(e)
		line := fmt.Sprintf("• %s %s", r.Label(e), formatVec(pos))
		if goal, moving := r.MovementGoal(e); moving {
			line += playerStyle.Render(" → " + formatVec(goal.Target))
		}
		content.WriteString(line + "\n")
	}
	return content.String()
}

func renderLog(entries []state.LogEntry, width int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("LOG") + "\n\n")
	wrap := max(width-2, 10)
	for _, e := range entries {
		switch e.Kind {
		case state.LogEntryLine:
			content.WriteString(wordwrap.String(speakerStyle.Render(e.Speaker+":")+" "+e.Text, wrap) + "\n")
		case state.LogEntryChoice:
			for i, opt := range e.Options {
				if i == e.Selected {
					content.WriteString(choiceStyle.Render("> "+opt.SpokenText()) + "\n")
				} else {
					content.WriteString(promptStyle.Render("  "+opt.SpokenText()) + "\n")
				}
			}
		}
	}
	return content.String()
}

func formatVec(v scene.Vec3) string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", v.X, v.Y, v.Z)
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the conversation?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	sideWidth := m.width / 3
	mainWidth := m.width - sideWidth

	mainPanel := dialoguePanelStyle.Width(mainWidth).Height(m.height - 1).Render(m.dialogueViewport.View())

	side := m.stageViewport.View()
	if m.showLog {
		side = lipgloss.JoinVertical(lipgloss.Left,
			side,
			separatorStyle.Render(strings.Repeat("─", max(sideWidth-4, 1))),
			m.logViewport.View(),
		)
	}
	sidePanel := sidePanelStyle.Width(sideWidth).Height(m.height - 1).Render(side)

	return lipgloss.JoinHorizontal(lipgloss.Top, mainPanel, sidePanel)
}
