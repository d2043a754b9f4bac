package audio

import "testing"

func TestNewRing(t *testing.T) {
	ring := NewRing(100)

	if ring.Capacity() != 100 {
		t.Errorf("Expected capacity 100, got %d", ring.Capacity())
	}

	if ring.Len() != 0 {
		t.Errorf("Expected initial length 0, got %d", ring.Len())
	}

	if ring.Total() != 0 {
		t.Errorf("Expected initial total 0, got %d", ring.Total())
	}

	if ring.Lost() != 0 {
		t.Errorf("Expected initial loss 0, got %d", ring.Lost())
	}
}

func TestNewRingInvalidCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for non-positive capacity")
		}
	}()
	NewRing(0)
}

func TestSnapshotBeforeFull(t *testing.T) {
	ring := NewRing(10)

	for i := int16(0); i < 6; i++ {
		ring.Push(i)
	}

	snapshot := ring.Snapshot()
	if len(snapshot) != 6 {
		t.Fatalf("Expected 6 samples, got %d", len(snapshot))
	}

	for i, s := range snapshot {
		if s != int16(i) {
			t.Errorf("Expected sample %d at index %d, got %d", i, i, s)
		}
	}

	if ring.Lost() != 0 {
		t.Errorf("Expected no loss before wrap, got %d", ring.Lost())
	}
}

func TestSnapshotExactlyFull(t *testing.T) {
	ring := NewRing(8)

	for i := int16(0); i < 8; i++ {
		ring.Push(i)
	}

	snapshot := ring.Snapshot()
	if len(snapshot) != 8 {
		t.Fatalf("Expected 8 samples, got %d", len(snapshot))
	}

	for i, s := range snapshot {
		if s != int16(i) {
			t.Errorf("Expected sample %d at index %d, got %d", i, i, s)
		}
	}

	if ring.Lost() != 0 {
		t.Errorf("Expected no loss at exact capacity, got %d", ring.Lost())
	}
}

func TestSnapshotAfterWrap(t *testing.T) {
	ring := NewRing(4)

	// Push 7 samples into a 4-slot ring; the last 4 survive.
	for i := int16(0); i < 7; i++ {
		ring.Push(i)
	}

	snapshot := ring.Snapshot()
	if len(snapshot) != 4 {
		t.Fatalf("Expected 4 samples after wrap, got %d", len(snapshot))
	}

	expected := []int16{3, 4, 5, 6}
	for i, want := range expected {
		if snapshot[i] != want {
			t.Errorf("Expected sample %d at index %d, got %d", want, i, snapshot[i])
		}
	}

	if ring.Lost() != 3 {
		t.Errorf("Expected 3 lost samples, got %d", ring.Lost())
	}
}

// One second of retention at 16 kHz with 1.5 seconds of input: the snapshot
// must hold the newest second in order and report exactly the overflow.
func TestRollingRecordingScenario(t *testing.T) {
	const capacity = 16000
	const pushed = 24000

	ring := NewRing(capacity)
	for i := 0; i < pushed; i++ {
		ring.Push(int16(i % 32768))
	}

	snapshot := ring.Snapshot()
	if len(snapshot) != capacity {
		t.Fatalf("Expected snapshot length %d, got %d", capacity, len(snapshot))
	}

	for i, s := range snapshot {
		want := int16((pushed - capacity + i) % 32768)
		if s != want {
			t.Fatalf("Expected sample %d at index %d, got %d", want, i, s)
		}
	}

	if ring.Lost() != pushed-capacity {
		t.Errorf("Expected %d lost samples, got %d", pushed-capacity, ring.Lost())
	}

	if ring.Total() != pushed {
		t.Errorf("Expected total %d, got %d", pushed, ring.Total())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	ring := NewRing(4)
	ring.Push(1)
	ring.Push(2)

	snapshot := ring.Snapshot()
	snapshot[0] = 99

	second := ring.Snapshot()
	if second[0] != 1 {
		t.Errorf("Expected snapshot to be an owned copy, ring was mutated to %d", second[0])
	}
}
