package handle

import "testing"

func TestNullHandles(t *testing.T) {
	if !Object(0).IsNull() || Object(1).IsNull() {
		t.Error("Object null check wrong")
	}
	if !Name(0).IsNull() || Name(7).IsNull() {
		t.Error("Name null check wrong")
	}
	var w Weak
	if !w.IsNull() {
		t.Error("zero Weak is not null")
	}
	if (Weak{Index: 3, Serial: 1}).IsNull() {
		t.Error("live Weak reported null")
	}
	// Index 0 with a serial is a valid reference; only the serial decides.
	if (Weak{Index: 0, Serial: 5}).IsNull() {
		t.Error("slot-0 Weak reported null")
	}
}

func TestCodeErr(t *testing.T) {
	if OK.Err() != nil {
		t.Error("OK.Err() != nil")
	}
	err := TypeMismatch.Err()
	if err == nil {
		t.Fatal("TypeMismatch.Err() == nil")
	}
	if err.Error() != "type mismatch" {
		t.Errorf("error text = %q", err.Error())
	}
	if Code(255).String() != "unknown error code" {
		t.Errorf("out-of-range code = %q", Code(255).String())
	}
}
