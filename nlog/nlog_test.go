package nlog

import "testing"

func TestVerbosityGating(t *testing.T) {
	SetVerbosity(0)
	if V(1) {
		t.Fatal("V(1) should be gated off at verbosity 0")
	}
	SetVerbosity(2)
	if !V(1) {
		t.Fatal("V(1) should be enabled at verbosity 2")
	}
	if V(3) {
		t.Fatal("V(3) should still be gated off at verbosity 2")
	}
}
