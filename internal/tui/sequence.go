package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/wesm/rosterview/internal/sequence"
)

const (
	focusNumbers = iota
	focusDelay
)

// sequenceModel is the state of the sequence screen.
type sequenceModel struct {
	numbers textinput.Model
	delay   textinput.Model
	focus   int
	bar     progress.Model

	running bool
	runID   int
	cancel  context.CancelFunc
	events  <-chan sequence.Event

	log   []string
	index int
	total int
	err   string
}

func newSequenceModel(delay time.Duration) sequenceModel {
	if delay <= 0 {
		delay = sequence.DefaultDelay
	}
	numbers := textinput.New()
	numbers.Placeholder = "1, 2, 3.5, -4"
	numbers.CharLimit = 1000
	numbers.Prompt = ""

	d := textinput.New()
	d.Placeholder = "1000"
	d.CharLimit = 5
	d.Prompt = ""
	d.SetValue(strconv.FormatInt(sequence.ClampDelay(delay).Milliseconds(), 10))

	return sequenceModel{
		numbers: numbers,
		delay:   d,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (s *sequenceModel) resize(width int) {
	s.numbers.Width = max(10, width-20)
	s.delay.Width = 8
	s.bar.Width = max(10, min(60, width-24))
}

func (s *sequenceModel) focusCurrent() tea.Cmd {
	if s.focus == focusDelay {
		s.numbers.Blur()
		return s.delay.Focus()
	}
	s.delay.Blur()
	return s.numbers.Focus()
}

func (s *sequenceModel) blur() {
	s.numbers.Blur()
	s.delay.Blur()
}

// stop cancels the running sequence, if any.
func (s *sequenceModel) stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// percent returns the progress of the current run.
func (s sequenceModel) percent() int {
	return sequence.Event{Index: s.index, Total: s.total}.Percent()
}

// sequenceEventMsg carries one event of run runID.
type sequenceEventMsg struct {
	runID int
	event sequence.Event
}

// waitForEvent reads the next event of a run.
func waitForEvent(runID int, ch <-chan sequence.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return sequenceEventMsg{runID: runID, event: ev}
	}
}

// handleSequenceKeys handles keys on the sequence screen. Printable keys go
// to the focused input.
func (m Model) handleSequenceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return m.switchScreen()

	case "up", "down", "shift+tab":
		if m.seq.focus == focusNumbers {
			m.seq.focus = focusDelay
		} else {
			m.seq.focus = focusNumbers
		}
		return m, m.seq.focusCurrent()

	case "enter":
		return m.startSequence()

	case "esc":
		if m.seq.running {
			m.seq.stop()
		}
		return m, nil
	}

	return m.updateSequenceInputs(msg)
}

func (m Model) updateSequenceInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var c1, c2 tea.Cmd
	m.seq.numbers, c1 = m.seq.numbers.Update(msg)
	m.seq.delay, c2 = m.seq.delay.Update(msg)
	return m, tea.Batch(c1, c2)
}

// startSequence parses the inputs and starts a new run. A run already in
// progress is cancelled and its remaining events are dropped.
func (m Model) startSequence() (tea.Model, tea.Cmd) {
	m.seq.err = ""

	nums, err := sequence.Parse(m.seq.numbers.Value())
	if err != nil {
		var inv *sequence.InvalidInputError
		if errors.As(err, &inv) {
			m.seq.err = "Invalid input: " + inv.Error()
		} else {
			m.seq.err = err.Error()
		}
		return m, nil
	}

	ms, err := strconv.Atoi(strings.TrimSpace(m.seq.delay.Value()))
	if err != nil {
		m.seq.err = fmt.Sprintf("Invalid delay %q", m.seq.delay.Value())
		return m, nil
	}
	delay := sequence.ClampDelay(time.Duration(ms) * time.Millisecond)
	m.seq.delay.SetValue(strconv.FormatInt(delay.Milliseconds(), 10))

	m.seq.stop()
	seq := sequence.New(nums, delay)
	ctx, cancel := context.WithCancel(m.ctx)

	// The buffer holds every value plus the terminal marker, so the producer
	// never blocks on a run nobody reads anymore.
	ch := make(chan sequence.Event, seq.Len()+2)
	go func() {
		defer close(ch)
		for ev := range seq.Stream(ctx) {
			ch <- ev
		}
	}()

	m.seq.runID++
	m.seq.cancel = cancel
	m.seq.events = ch
	m.seq.running = true
	m.seq.log = nil
	m.seq.index = 0
	m.seq.total = seq.Len()
	m.logger.Debug("sequence started", "count", seq.Len(), "delay", delay)

	spinCmd := m.startSpinner()
	return m, tea.Batch(spinCmd, waitForEvent(m.seq.runID, ch))
}

func (m Model) handleSequenceEvent(msg sequenceEventMsg) (tea.Model, tea.Cmd) {
	if msg.runID != m.seq.runID {
		return m, nil
	}
	ev := msg.event
	m.seq.log = append(m.seq.log, ev.String())
	m.seq.index = ev.Index
	m.seq.total = ev.Total
	if ev.Terminal() {
		m.seq.running = false
		m.seq.stop()
		m.logger.Debug("sequence finished", "result", ev.String())
		return m, nil
	}
	return m, waitForEvent(msg.runID, m.seq.events)
}
