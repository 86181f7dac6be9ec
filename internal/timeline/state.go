package timeline

import "github.com/i474232898/weather-timeline/internal/common"

// Status is the live/historical mode of the navigation state.
type Status int

const (
	StatusLive Status = iota
	StatusHistorical
)

func (s Status) String() string {
	if s == StatusHistorical {
		return "historical"
	}
	return "live"
}

// NavigationState is the mutable core state. SelectedIndex is -1 only while
// the timeline is empty; NowIndex is -1 while unknown.
type NavigationState struct {
	SelectedIndex int  `json:"selectedIndex"`
	NowIndex      int  `json:"nowIndex"`
	IsLive        bool `json:"isLive"`
}

// Status returns the mode the state is in.
func (s NavigationState) Status() Status {
	if s.IsLive {
		return StatusLive
	}
	return StatusHistorical
}

// Reason names the input that caused a transition.
type Reason int

const (
	ReasonLoad Reason = iota
	ReasonScrub
	ReasonReturnToNow
)

// Transition describes one step of the state machine.
type Transition struct {
	From   Status
	To     Status
	Reason Reason
}

// EnteredLive reports whether the step lands in live mode in a way that
// should recenter the strip and refresh the caption. Loading a new result
// always counts, a live-to-live scrub does not.
func (t Transition) EnteredLive() bool {
	if t.To != StatusLive {
		return false
	}
	return t.From != StatusLive || t.Reason == ReasonLoad
}

// StateMachine owns NavigationState and applies the live/historical
// transitions. It is not safe for concurrent use.
type StateMachine struct {
	state  NavigationState
	length int
}

// NewStateMachine returns a machine in the reset state.
func NewStateMachine() *StateMachine {
	m := &StateMachine{}
	m.Reset()
	return m
}

// State returns a copy of the current state.
func (m *StateMachine) State() NavigationState {
	return m.state
}

// Len is the length of the timeline the machine navigates.
func (m *StateMachine) Len() int {
	return m.length
}

// Reset clears the state ahead of a new query.
func (m *StateMachine) Reset() {
	m.state = NavigationState{SelectedIndex: -1, NowIndex: -1, IsLive: true}
	m.length = 0
}

// Load installs a freshly resolved timeline of length items whose "now"
// sample is at nowIndex, and enters live mode.
func (m *StateMachine) Load(length, nowIndex int) Transition {
	from := m.state.Status()
	m.Reset()

	if length > 0 {
		m.length = length
		if nowIndex >= 0 {
			m.state.NowIndex = common.ClampIndex(nowIndex, length)
			m.state.SelectedIndex = m.state.NowIndex
		} else {
			m.state.SelectedIndex = 0
		}
	}

	return Transition{From: from, To: StatusLive, Reason: ReasonLoad}
}

// Scrub selects index k in response to the user moving the strip. Landing on
// the "now" sample returns to live mode; anywhere else pins the view.
func (m *StateMachine) Scrub(k int) Transition {
	from := m.state.Status()
	if m.length == 0 {
		return Transition{From: from, To: from, Reason: ReasonScrub}
	}

	k = common.ClampIndex(k, m.length)
	if m.state.NowIndex >= 0 && k == m.state.NowIndex {
		m.state.SelectedIndex = k
		m.state.IsLive = true
	} else {
		m.state.SelectedIndex = k
		m.state.IsLive = false
	}

	return Transition{From: from, To: m.state.Status(), Reason: ReasonScrub}
}

// ReturnToNow leaves historical mode and reselects the "now" sample.
func (m *StateMachine) ReturnToNow() Transition {
	from := m.state.Status()
	if m.length == 0 || from == StatusLive {
		return Transition{From: from, To: from, Reason: ReasonReturnToNow}
	}

	m.state.IsLive = true
	if m.state.NowIndex >= 0 {
		m.state.SelectedIndex = m.state.NowIndex
	}

	return Transition{From: from, To: StatusLive, Reason: ReasonReturnToNow}
}
