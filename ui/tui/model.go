// Package tui implements the interactive terminal front end: a setup form,
// a live run view fed by runner events, and a run history browser.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"patchlab/internal/config"
	"patchlab/internal/history"
	"patchlab/internal/pairing"
	"patchlab/internal/preview"
	"patchlab/internal/runner"
	"patchlab/internal/settings"
)

// View states
const (
	setupView = iota
	runView
	historyView
)

// Preview grid shape in cells.
const (
	previewCols = 26
	previewRows = 8
)

const maxLogLines = 200

// DataChangedMsg is sent from outside the program when the watched data
// directories change, so the census refreshes without a keypress.
type DataChangedMsg struct{}

type censusMsg struct {
	census pairing.Census
	err    error
}

type runnerEventMsg struct {
	ev runner.Event
}

type eventsClosedMsg struct{}

type historyMsg struct {
	recs []history.Record
	err  error
}

type historySavedMsg struct {
	id  uint64
	err error
}

// runState holds everything belonging to the job currently shown in the
// run view.
type runState struct {
	runner    *runner.Runner
	events    <-chan runner.Event
	cfg       config.Config
	startedAt time.Time

	percent     int
	stats       runner.Stats
	logs        []string
	logView     viewport.Model
	bar         progress.Model
	grid        [][]float64
	previewStem string

	done    bool
	doneOK  bool
	doneMsg string
}

// Model represents the application state.
type Model struct {
	view   int
	width  int
	height int

	form      form
	census    pairing.Census
	censusErr error
	status    string
	statusErr bool

	settings    *settings.Settings
	historyPath string
	lastCfg     config.Config

	run     *runState
	history []history.Record
	histErr error
}

// NewModel builds the initial model. The form is seeded from the last
// stored configuration when one exists.
func NewModel(sets *settings.Settings, historyPath string) Model {
	cfg, ok := sets.LastConfig()
	if !ok {
		cfg.ImageFolderName = sets.ImageFolderName()
		cfg.MaskFolderName = sets.MaskFolderName()
	}
	return Model{
		view:        setupView,
		width:       100,
		height:      32,
		form:        newForm(cfg),
		settings:    sets,
		historyPath: historyPath,
		lastCfg:     cfg,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.scanCmd())
}

// scanConfig returns the best available configuration for a census scan:
// the current form when it parses, otherwise the last good one.
func (m Model) scanConfig() config.Config {
	if cfg, err := m.form.Config(); err == nil {
		return cfg
	}
	return m.lastCfg
}

func (m Model) scanCmd() tea.Cmd {
	cfg := m.scanConfig()
	return func() tea.Msg {
		census, err := pairing.Scan(cfg.ImagesDir(), cfg.MasksDir(), cfg.Extensions)
		return censusMsg{census: census, err: err}
	}
}

// listenEvents waits for the next runner event. The command re-arms
// itself from Update after every delivery.
func listenEvents(ch <-chan runner.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return runnerEventMsg{ev: ev}
	}
}

func loadHistory(path string) tea.Cmd {
	return func() tea.Msg {
		store, err := history.Open(path)
		if err != nil {
			return historyMsg{err: err}
		}
		defer store.Close()
		recs, err := store.Recent(20)
		return historyMsg{recs: recs, err: err}
	}
}

func appendHistory(path string, rec history.Record) tea.Cmd {
	return func() tea.Msg {
		store, err := history.Open(path)
		if err != nil {
			return historySavedMsg{err: err}
		}
		defer store.Close()
		id, err := store.Append(rec)
		return historySavedMsg{id: id, err: err}
	}
}

// Update handles UI updates.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeRun()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.run != nil && !m.run.done {
				m.run.runner.Cancel()
			}
			return m, tea.Quit
		}
		return m.updateKey(msg)

	case censusMsg:
		m.census = msg.census
		m.censusErr = msg.err
		return m, nil

	case DataChangedMsg:
		return m, m.scanCmd()

	case runnerEventMsg:
		return m.applyEvent(msg.ev)

	case eventsClosedMsg:
		return m, nil

	case historyMsg:
		m.history = msg.recs
		m.histErr = msg.err
		return m, nil

	case historySavedMsg:
		if msg.err != nil {
			m.setStatus("Could not record run: "+msg.err.Error(), true)
		}
		return m, nil
	}

	if m.view == setupView {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case setupView:
		switch msg.String() {
		case "esc":
			return m, tea.Quit
		case "ctrl+r":
			m.setStatus("Rescanning...", false)
			return m, m.scanCmd()
		case "ctrl+h":
			m.view = historyView
			return m, loadHistory(m.historyPath)
		case "ctrl+s":
			return m.startRun()
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd

	case runView:
		if m.run == nil {
			m.view = setupView
			return m, nil
		}
		switch msg.String() {
		case "p":
			if !m.run.done {
				m.run.runner.Pause()
			}
		case "r":
			if !m.run.done {
				m.run.runner.Resume()
			}
		case "c":
			if !m.run.done {
				m.run.runner.Cancel()
			}
		case "enter", "esc":
			if m.run.done {
				m.view = setupView
				return m, m.scanCmd()
			}
		case "q":
			if m.run.done {
				return m, tea.Quit
			}
		case "up":
			m.run.logView.LineUp(1)
		case "down":
			m.run.logView.LineDown(1)
		case "pgup":
			m.run.logView.LineUp(5)
		case "pgdown":
			m.run.logView.LineDown(5)
		}
		return m, nil

	case historyView:
		switch msg.String() {
		case "esc", "q":
			m.view = setupView
			return m, nil
		case "ctrl+r":
			return m, loadHistory(m.historyPath)
		}
	}
	return m, nil
}

// startRun validates the form and launches a job.
func (m Model) startRun() (tea.Model, tea.Cmd) {
	cfg, err := m.form.Config()
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	if err := cfg.Validate(); err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}

	m.lastCfg = cfg
	m.settings.SetLastConfig(cfg)
	m.settings.SetFolderNames(cfg.ImageFolderName, cfg.MaskFolderName)
	if err := m.settings.Save(); err != nil {
		m.setStatus("Could not save settings: "+err.Error(), true)
	} else {
		m.setStatus("", false)
	}

	r := runner.New(cfg)
	events := r.Events()

	rs := &runState{
		runner:    r,
		events:    events,
		cfg:       cfg,
		startedAt: time.Now(),
		bar:       progress.New(progress.WithDefaultGradient()),
	}
	rs.logView = viewport.New(m.width-4, 8)
	m.run = rs
	m.view = runView
	m.resizeRun()

	r.Start()
	return m, listenEvents(events)
}

// applyEvent folds one runner event into the run view state.
func (m Model) applyEvent(ev runner.Event) (tea.Model, tea.Cmd) {
	if m.run == nil {
		return m, nil
	}
	rs := m.run

	switch ev.Type {
	case runner.EventProgress:
		rs.percent = ev.Percent

	case runner.EventStats:
		rs.stats = ev.Stats

	case runner.EventPreview:
		rs.previewStem = ev.Preview.Stem
		rs.grid = preview.DensityGrid(ev.Preview.Mask, previewCols, previewRows)

	case runner.EventLog:
		rs.logs = append(rs.logs, ev.Message)
		if len(rs.logs) > maxLogLines {
			rs.logs = rs.logs[len(rs.logs)-maxLogLines:]
		}
		rs.logView.SetContent(logLineStyle.Render(strings.Join(rs.logs, "\n")))
		rs.logView.GotoBottom()

	case runner.EventDone:
		rs.done = true
		rs.doneOK = ev.OK
		rs.doneMsg = ev.Message

		rec := history.Record{
			StartedAt:  rs.startedAt,
			FinishedAt: time.Now(),
			Config:     rs.cfg,
			State:      rs.runner.State().String(),
			OK:         ev.OK,
			Message:    ev.Message,
			Stats:      rs.runner.Stats(),
		}
		if m.historyPath == "" {
			return m, listenEvents(rs.events)
		}
		return m, tea.Batch(appendHistory(m.historyPath, rec), listenEvents(rs.events))
	}

	return m, listenEvents(rs.events)
}

func (m *Model) setStatus(status string, isErr bool) {
	m.status = status
	m.statusErr = isErr
}

// resizeRun fits the run view components to the window.
func (m *Model) resizeRun() {
	if m.run == nil {
		return
	}
	barWidth := m.width - 8
	if barWidth < 10 {
		barWidth = 10
	}
	m.run.bar.Width = barWidth

	logHeight := m.height - previewRows - 14
	if logHeight < 4 {
		logHeight = 4
	}
	logWidth := m.width - 6
	if logWidth < 20 {
		logWidth = 20
	}
	m.run.logView.Width = logWidth
	m.run.logView.Height = logHeight
	m.run.logView.SetContent(logLineStyle.Render(strings.Join(m.run.logs, "\n")))
	m.run.logView.GotoBottom()
}
