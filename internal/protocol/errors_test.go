package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrWorldBusy,
		ErrBadRequest,
		ErrOutOfBounds,
		ErrInvalidTarget,
		ErrNoHit,
		ErrRateLimit,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestResult_Fail(t *testing.T) {
	r := NewResult("e1", 7)
	r.OK = true
	f := r.Fail(ErrNoHit, "ray missed")
	if f.OK || f.Code != ErrNoHit || f.Tick != 7 || f.Type != TypeResult {
		t.Fatalf("Fail: %+v", f)
	}
	if !r.OK {
		t.Fatalf("Fail mutated the receiver")
	}
}
