// Package contingency enumerates the joint strategy choices of a finite
// game, one 1-based strategy index per agent. Agents can be frozen at a
// fixed strategy so that the enumeration runs over the remaining agents
// only.
package contingency

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrAgent is returned for an agent number outside 1..N.
	ErrAgent = errors.New("agent out of range")
	// ErrIndex is returned for a strategy index outside 1..count.
	ErrIndex = errors.New("strategy index out of range")
	// ErrLength is returned when a contingency has the wrong number of agents.
	ErrLength = errors.New("contingency length mismatch")
)

// Step reports what Next did to an agent.
type Step int

const (
	// NoAdvance means the agent is frozen or unknown and nothing changed.
	NoAdvance Step = iota
	// Advanced means the agent moved to its next strategy.
	Advanced
	// Wrapped means the agent rolled over from its last strategy to 1.
	Wrapped
)

func (s Step) String() string {
	switch s {
	case Advanced:
		return "advanced"
	case Wrapped:
		return "wrapped"
	default:
		return "no advance"
	}
}

// Enumerator walks contingencies over the thawed agents, last agent
// fastest. Frozen agents keep their pinned index throughout.
type Enumerator struct {
	counts  []int
	current []int
	frozen  []bool
	thawed  []int
}

// New returns an enumerator over agents 1..len(counts), where counts[i] is
// the number of strategies of agent i+1. All agents start thawed at the
// first contingency.
func New(counts []int) (*Enumerator, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no agents", ErrLength)
	}
	for i, c := range counts {
		if c < 1 {
			return nil, fmt.Errorf("%w: agent %d has %d strategies", ErrIndex, i+1, c)
		}
	}
	e := &Enumerator{
		counts:  append([]int(nil), counts...),
		current: make([]int, len(counts)),
		frozen:  make([]bool, len(counts)),
		thawed:  make([]int, len(counts)),
	}
	for i := range counts {
		e.thawed[i] = i + 1
	}
	e.First()
	return e, nil
}

// First resets every thawed agent to strategy 1.
func (e *Enumerator) First() {
	for _, a := range e.thawed {
		e.current[a-1] = 1
	}
}

// rebaseline resets every thawed agent except skip to strategy 1.
func (e *Enumerator) rebaseline(skip int) {
	for _, a := range e.thawed {
		if a != skip {
			e.current[a-1] = 1
		}
	}
}

// Next advances a single agent. Other thawed agents go back to strategy 1
// whether the agent advanced or wrapped; a wrap is a carry signal for the
// caller and does not advance any other agent.
func (e *Enumerator) Next(agent int) Step {
	if agent < 1 || agent > len(e.counts) || e.frozen[agent-1] {
		return NoAdvance
	}
	i := agent - 1
	if e.current[i] < e.counts[i] {
		e.current[i]++
		e.rebaseline(agent)
		return Advanced
	}
	e.current[i] = 1
	e.rebaseline(agent)
	return Wrapped
}

// NextContingency advances the joint tuple like an odometer over the
// thawed agents. It returns false, with every thawed agent back at 1, once
// the whole thawed product has been visited, and immediately when no agent
// is thawed.
func (e *Enumerator) NextContingency() bool {
	for k := len(e.thawed) - 1; k >= 0; k-- {
		i := e.thawed[k] - 1
		if e.current[i] < e.counts[i] {
			e.current[i]++
			return true
		}
		e.current[i] = 1
	}
	return false
}

// Walk calls fn with every contingency of the thawed product, starting at
// the first one, until fn returns false. The slice passed to fn is reused.
func (e *Enumerator) Walk(fn func(c []int) bool) {
	e.First()
	for {
		if !fn(e.current) {
			return
		}
		if !e.NextContingency() {
			return
		}
	}
}

func (e *Enumerator) checkAgent(agent int) error {
	if agent < 1 || agent > len(e.counts) {
		return fmt.Errorf("%w: %d not in 1..%d", ErrAgent, agent, len(e.counts))
	}
	return nil
}

func (e *Enumerator) checkIndex(agent, index int) error {
	if index < 1 || index > e.counts[agent-1] {
		return fmt.Errorf("%w: agent %d index %d not in 1..%d", ErrIndex, agent, index, e.counts[agent-1])
	}
	return nil
}

// Freeze pins agent at index and removes it from the enumeration. Freezing
// an agent that is already frozen moves its pin. Thawed agents are reset
// to strategy 1.
func (e *Enumerator) Freeze(agent, index int) error {
	if err := e.checkAgent(agent); err != nil {
		return err
	}
	if err := e.checkIndex(agent, index); err != nil {
		return err
	}
	e.current[agent-1] = index
	if !e.frozen[agent-1] {
		e.frozen[agent-1] = true
		k := sort.SearchInts(e.thawed, agent)
		e.thawed = append(e.thawed[:k], e.thawed[k+1:]...)
	}
	e.First()
	return nil
}

// Thaw returns a frozen agent to the enumeration and resets the thawed
// agents to strategy 1. Thawing a thawed agent does nothing.
func (e *Enumerator) Thaw(agent int) error {
	if err := e.checkAgent(agent); err != nil {
		return err
	}
	if !e.frozen[agent-1] {
		return nil
	}
	e.frozen[agent-1] = false
	k := sort.SearchInts(e.thawed, agent)
	e.thawed = append(e.thawed, 0)
	copy(e.thawed[k+1:], e.thawed[k:])
	e.thawed[k] = agent
	e.First()
	return nil
}

// Get returns a copy of the current contingency.
func (e *Enumerator) Get() []int {
	return append([]int(nil), e.current...)
}

// Set replaces the whole contingency, frozen agents included.
func (e *Enumerator) Set(c []int) error {
	if len(c) != len(e.counts) {
		return fmt.Errorf("%w: got %d agents, want %d", ErrLength, len(c), len(e.counts))
	}
	for i, index := range c {
		if err := e.checkIndex(i+1, index); err != nil {
			return err
		}
	}
	copy(e.current, c)
	return nil
}

// SetAgent changes the strategy of a single agent without touching the
// others.
func (e *Enumerator) SetAgent(agent, index int) error {
	if err := e.checkAgent(agent); err != nil {
		return err
	}
	if err := e.checkIndex(agent, index); err != nil {
		return err
	}
	e.current[agent-1] = index
	return nil
}

// Frozen lists the frozen agents in increasing order.
func (e *Enumerator) Frozen() []int {
	var agents []int
	for i, f := range e.frozen {
		if f {
			agents = append(agents, i+1)
		}
	}
	return agents
}

// Thawed lists the thawed agents in increasing order.
func (e *Enumerator) Thawed() []int {
	return append([]int(nil), e.thawed...)
}

// Counts returns the number of strategies of each agent.
func (e *Enumerator) Counts() []int {
	return append([]int(nil), e.counts...)
}

// Size returns the number of contingencies in the thawed product,
// saturated at math.MaxInt.
func (e *Enumerator) Size() int {
	size := 1
	for _, a := range e.thawed {
		c := e.counts[a-1]
		if size > math.MaxInt/c {
			return math.MaxInt
		}
		size *= c
	}
	return size
}
