package dialog

import "testing"

func TestMachine_InitialState(t *testing.T) {
	m := NewMachine()
	if m.State() != StateIdleWaitingUser {
		t.Errorf("initial state = %s, want %s", m.State(), StateIdleWaitingUser)
	}
}

func TestMachine_BasicTurnLifecycle(t *testing.T) {
	m := NewMachine()
	if err := m.To(StateProceeding); err != nil {
		t.Fatalf("idle -> proceeding: %v", err)
	}
	if err := m.ToBlocked(ReasonWaitingForSubdialogs); err != nil {
		t.Fatalf("proceeding -> blocked: %v", err)
	}
	if m.State() != StateBlocked || m.BlockedReason() != ReasonWaitingForSubdialogs {
		t.Errorf("state = %s/%s", m.State(), m.BlockedReason())
	}
	if err := m.To(StateProceeding); err != nil {
		t.Fatalf("blocked -> proceeding (resume): %v", err)
	}
	if err := m.To(StateIdleWaitingUser); err != nil {
		t.Fatalf("proceeding -> idle: %v", err)
	}
}

func TestMachine_AutoContinueReentry(t *testing.T) {
	m := NewMachine()
	m.To(StateProceeding)
	if err := m.To(StateProceeding); err != nil {
		t.Fatalf("proceeding -> proceeding (auto-continue): %v", err)
	}
}

func TestMachine_InvalidTransitionRejected(t *testing.T) {
	m := NewMachine()
	if err := m.To(StateBlocked); err == nil {
		t.Error("expected idle -> blocked to be rejected")
	}
}

func TestMachine_AnyNonDeadToDead(t *testing.T) {
	for _, s := range []RunState{StateIdleWaitingUser, StateProceeding, StateBlocked, StateInterrupted, StateTerminal} {
		m := &Machine{state: s}
		m.ToDead(nil)
		if m.State() != StateDead {
			t.Errorf("from %s: expected dead, got %s", s, m.State())
		}
	}
}

func TestMachine_TerminalIsFinalExceptDead(t *testing.T) {
	m := &Machine{state: StateTerminal}
	if err := m.To(StateProceeding); err == nil {
		t.Error("expected terminal -> proceeding to be rejected")
	}
}

func TestDiligenceBudget_S4_MonotonicAndResets(t *testing.T) {
	b := NewDiligenceBudget(2)
	if !b.HasBudget() {
		t.Fatal("expected budget available")
	}
	if r := b.Consume(); r != 1 {
		t.Errorf("first consume = %d, want 1", r)
	}
	if r := b.Consume(); r != 0 {
		t.Errorf("second consume = %d, want 0", r)
	}
	if b.HasBudget() {
		t.Error("expected budget exhausted")
	}
	b.Reset()
	if b.Remaining() != 2 {
		t.Errorf("after reset, remaining = %d, want 2", b.Remaining())
	}
}

func TestCombineBlockedReasons(t *testing.T) {
	cases := []struct {
		human, subs bool
		want        BlockedReason
	}{
		{false, false, ReasonNone},
		{true, false, ReasonNeedsHumanInput},
		{false, true, ReasonWaitingForSubdialogs},
		{true, true, ReasonNeedsHumanInputAndSubdialogs},
	}
	for _, c := range cases {
		if got := CombineBlockedReasons(c.human, c.subs); got != c.want {
			t.Errorf("CombineBlockedReasons(%v,%v) = %s, want %s", c.human, c.subs, got, c.want)
		}
	}
}
