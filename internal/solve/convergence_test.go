package solve

import (
	"math"
	"testing"
)

func TestConvergenceTracker_Patience(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.01})

	if tracker.Best() != math.Inf(1) {
		t.Errorf("Expected initial best to be Inf, got %v", tracker.Best())
	}
	if tracker.Update(1.0) {
		t.Error("Should not converge on first update")
	}
	if tracker.Update(0.5) { // 50% improvement
		t.Error("Should not converge after improvement")
	}
	if tracker.StaleCount() != 0 {
		t.Errorf("Expected stale count 0, got %d", tracker.StaleCount())
	}
	if tracker.Update(0.499) { // 0.2% < 1%
		t.Error("Should not converge yet (1/2)")
	}
	if !tracker.Update(0.498) {
		t.Error("Should converge after patience exceeded (2/2)")
	}
	if tracker.Best() != 0.498 {
		t.Errorf("Expected best 0.498, got %v", tracker.Best())
	}
	if got := tracker.History(); len(got) != 4 {
		t.Errorf("Expected 4 history entries, got %d", len(got))
	}
}

func TestConvergenceTracker_ZeroValue(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 1, Threshold: 0.01})

	tracker.Update(0)
	if !tracker.Update(0) {
		t.Error("A run that cannot improve on zero should count as stale")
	}
}

func TestConvergenceTracker_Disabled(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{})

	for i := 0; i < 10; i++ {
		if tracker.Update(1.0) {
			t.Fatal("Disabled tracker should never converge")
		}
	}
	if len(tracker.History()) != 0 {
		t.Error("Disabled tracker should not record history")
	}
}
