package kernel

import "testing"

func TestErrorInterface(t *testing.T) {
	err := &Error{Module: "vmm", Message: "page is not mapped to a physical frame"}
	if got := err.Error(); got != err.Message {
		t.Fatalf("expected Error() to return %q; got %q", err.Message, got)
	}
}

func TestErrorIdentity(t *testing.T) {
	// Sentinel errors are compared by identity; two values with the same
	// contents must still be distinguishable.
	err1 := &Error{Module: "vmm", Message: "oops"}
	err2 := &Error{Module: "vmm", Message: "oops"}

	var err error = err1
	if err != error(err1) {
		t.Fatal("expected sentinel comparison to match the same value")
	}
	if err == error(err2) {
		t.Fatal("expected sentinel comparison to ignore equal contents")
	}
}
