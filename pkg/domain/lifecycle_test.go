package domain_test

import (
	"testing"

	"github.com/s8r-framework/s8r/pkg/domain"
)

func TestState_CanTransitionTo(t *testing.T) {
	cases := []struct {
		name string
		from domain.State
		to   domain.State
		want bool
	}{
		{"conception to initializing", domain.StateConception, domain.StateInitializing, true},
		{"conception skips ahead", domain.StateConception, domain.StateReady, false},
		{"self transition", domain.StateActive, domain.StateActive, true},
		{"ready to active", domain.StateReady, domain.StateActive, true},
		{"active back to ready", domain.StateActive, domain.StateReady, true},
		{"active to waiting", domain.StateActive, domain.StateWaiting, true},
		{"waiting to transforming", domain.StateWaiting, domain.StateTransforming, false},
		{"adapting to stable", domain.StateAdapting, domain.StateStable, true},
		{"stable to degraded", domain.StateStable, domain.StateDegraded, true},
		{"degraded to maintaining", domain.StateDegraded, domain.StateMaintaining, true},
		{"terminating to terminated", domain.StateTerminating, domain.StateTerminated, true},
		{"terminated to archived", domain.StateTerminated, domain.StateArchived, true},
		{"archived is terminal", domain.StateArchived, domain.StateReady, false},
		{"unknown source", domain.State("bogus"), domain.StateReady, false},
		{"unknown target", domain.StateReady, domain.State("bogus"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestState_Categories(t *testing.T) {
	if got := domain.StateConception.Category(); got != domain.CategoryLifecycle {
		t.Errorf("Conception category = %s", got)
	}
	if got := domain.StateActive.Category(); got != domain.CategoryOperational {
		t.Errorf("Active category = %s", got)
	}
	if got := domain.StateSpawning.Category(); got != domain.CategoryAdvanced {
		t.Errorf("Spawning category = %s", got)
	}
	if got := domain.StateArchived.Category(); got != domain.CategoryTermination {
		t.Errorf("Archived category = %s", got)
	}

	if !domain.StateConfiguring.IsEarlyStage() {
		t.Error("Configuring should be early stage")
	}
	if domain.StateReady.IsEarlyStage() {
		t.Error("Ready should not be early stage")
	}
	if !domain.StateArchived.IsTerminal() {
		t.Error("Archived should be terminal")
	}
	if domain.StateConception.BiologicalAnalog() == "" {
		t.Error("lifecycle states should carry a biological analog")
	}
}

func TestState_EveryNonTerminalStateReachesTerminated(t *testing.T) {
	// Walk the transition graph from each state; Terminated must be
	// reachable from everything except Archived.
	states := []domain.State{
		domain.StateConception, domain.StateInitializing, domain.StateConfiguring,
		domain.StateSpecializing, domain.StateDevelopingFeatures, domain.StateReady,
		domain.StateActive, domain.StateWaiting, domain.StateAdapting,
		domain.StateTransforming, domain.StateStable, domain.StateSpawning,
		domain.StateDegraded, domain.StateMaintaining, domain.StateTerminating,
	}

	reaches := func(start domain.State) bool {
		seen := map[domain.State]bool{start: true}
		queue := []domain.State{start}
		for len(queue) > 0 {
			s := queue[0]
			queue = queue[1:]
			if s == domain.StateTerminated {
				return true
			}
			for _, next := range s.NextStates() {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		return false
	}

	for _, s := range states {
		if !reaches(s) {
			t.Errorf("state %s cannot reach Terminated", s)
		}
	}
}
