package models

import "testing"

func TestLotStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to LotStatus
		ok       bool
	}{
		{LotActive, LotCompleted, true},
		{LotActive, LotCancelled, true},
		{LotCompleted, LotActive, false},
		{LotCompleted, LotCancelled, false},
		{LotCancelled, LotCompleted, false},
		{LotActive, LotActive, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestLotStatusTerminal(t *testing.T) {
	if LotActive.Terminal() {
		t.Error("Active reported terminal")
	}
	if !LotCompleted.Terminal() || !LotCancelled.Terminal() {
		t.Error("Completed and Cancelled must be terminal")
	}
	if LotStatus("Paused").Terminal() {
		t.Error("unknown status reported terminal")
	}
}

func TestLotStatusValid(t *testing.T) {
	for _, s := range []LotStatus{LotActive, LotCompleted, LotCancelled} {
		if !s.Valid() {
			t.Errorf("%s reported invalid", s)
		}
	}
	if LotStatus("Open").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestShiftValid(t *testing.T) {
	if !ShiftDay.Valid() || !ShiftNight.Valid() {
		t.Error("Day and Night must be valid shifts")
	}
	if Shift("Evening").Valid() {
		t.Error("Evening reported valid")
	}
}

func TestGroupKeyValid(t *testing.T) {
	for _, k := range []GroupKey{GroupByWorker, GroupByMachine, GroupByQuality, GroupByDay} {
		if !k.Valid() {
			t.Errorf("%s reported invalid", k)
		}
	}
	if GroupKey("loom").Valid() {
		t.Error("unknown key reported valid")
	}
}
