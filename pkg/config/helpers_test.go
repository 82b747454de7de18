package config

import "testing"

func TestBoolPtrAndBoolValue(t *testing.T) {
	p := BoolPtr(true)
	if p == nil || !*p {
		t.Fatal("BoolPtr(true) should produce a non-nil pointer to true")
	}
	if !BoolValue(p, false) {
		t.Error("BoolValue should dereference a non-nil pointer")
	}
	if !BoolValue(nil, true) {
		t.Error("BoolValue should return the default for a nil pointer")
	}
	if BoolValue(nil, false) {
		t.Error("BoolValue should return the default for a nil pointer")
	}
}
