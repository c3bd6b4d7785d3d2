package memoryoracle

import "testing"

func TestFixedAvailable(t *testing.T) {
	f := &Fixed{AvailableBytes: 1024}
	avail, err := f.Available()
	if err != nil || avail != 1024 {
		t.Fatalf("Available = %d, %v, want 1024, nil", avail, err)
	}
}

func TestFixedRequest(t *testing.T) {
	f := &Fixed{AvailableBytes: 1024}
	if !f.Request(1024, false) {
		t.Fatalf("Request(1024) = false, want true")
	}
	if !f.Request(512, true) {
		t.Fatalf("Request(512, hard) = false, want true")
	}
	if f.Request(2048, false) {
		t.Fatalf("Request(2048) = true, want false")
	}
}

func TestFixedShortStatus(t *testing.T) {
	low := &Fixed{AvailableBytes: 1024}
	short, err := low.ShortStatus()
	if err != nil || !short {
		t.Fatalf("ShortStatus(low) = %v, %v, want true, nil", short, err)
	}

	high := &Fixed{AvailableBytes: 1 << 30}
	short, err = high.ShortStatus()
	if err != nil || short {
		t.Fatalf("ShortStatus(high) = %v, %v, want false, nil", short, err)
	}
}

func TestNewSystemImplementsOracle(t *testing.T) {
	var _ Oracle = NewSystem()
}
