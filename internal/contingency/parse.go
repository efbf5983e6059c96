package contingency

import (
	"fmt"
	"strconv"
	"strings"
)

// Pin fixes one agent at a strategy index.
type Pin struct {
	Agent int `json:"agent"`
	Index int `json:"index"`
}

// ParseCounts reads a comma-separated list of strategy counts, e.g. "2,3,2".
func ParseCounts(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	counts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid strategy count %q: %w", f, err)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

// ParsePins reads a comma-separated list of agent:index pairs, e.g.
// "2:2,3:1". An empty string yields no pins.
func ParsePins(s string) ([]Pin, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var pins []Pin
	for _, f := range strings.Split(s, ",") {
		agent, index, ok := strings.Cut(strings.TrimSpace(f), ":")
		if !ok {
			return nil, fmt.Errorf("invalid pin %q: want agent:index", f)
		}
		a, err := strconv.Atoi(agent)
		if err != nil {
			return nil, fmt.Errorf("invalid pin %q: %w", f, err)
		}
		i, err := strconv.Atoi(index)
		if err != nil {
			return nil, fmt.Errorf("invalid pin %q: %w", f, err)
		}
		pins = append(pins, Pin{Agent: a, Index: i})
	}
	return pins, nil
}

// FreezeAll applies pins in order.
func (e *Enumerator) FreezeAll(pins []Pin) error {
	for _, p := range pins {
		if err := e.Freeze(p.Agent, p.Index); err != nil {
			return err
		}
	}
	return nil
}

// Format renders a contingency as space-separated indices.
func Format(c []int) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
