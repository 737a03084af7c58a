package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/pomodoro/internal/timer"
)

const eventBuffer = 256

// eventSource turns engine callbacks into Bubble Tea messages. Callbacks run
// on whatever goroutine drove the engine, so they only enqueue.
type eventSource struct {
	ch    chan timer.Event
	unsub func()
}

func newEventSource(e *timer.Engine) *eventSource {
	src := &eventSource{ch: make(chan timer.Event, eventBuffer)}
	src.unsub = e.Subscribe(func(ev timer.Event) {
		select {
		case src.ch <- ev:
		default:
			// UI is behind; drop. Every event carries a full snapshot.
		}
	})
	return src
}

// wait blocks for the next event. Re-issue it after every engineEventMsg.
func (s *eventSource) wait() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.ch
		if !ok {
			return nil
		}
		return engineEventMsg{event: ev}
	}
}

func (s *eventSource) close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}
