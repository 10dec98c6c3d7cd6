package comm

import (
	"sync"
	"testing"
)

func TestRingFIFOUpToCapacity(t *testing.T) {
	for _, capacity := range []int{1, 2, 7, 64} {
		r := NewRing[int](capacity)
		for i := 0; i < capacity; i++ {
			if !r.Send(i) {
				t.Fatalf("cap %d: send %d failed", capacity, i)
			}
		}
		if r.Send(999) {
			t.Errorf("cap %d: send beyond capacity should fail", capacity)
		}
		for i := 0; i < capacity; i++ {
			v, ok := r.Receive()
			if !ok || v != i {
				t.Fatalf("cap %d: receive = (%d, %v), want (%d, true)", capacity, v, ok, i)
			}
		}
		if _, ok := r.Receive(); ok {
			t.Errorf("cap %d: receive on empty ring should fail", capacity)
		}
	}
}

func TestRingFullSendDoesNotMutate(t *testing.T) {
	r := NewRing[int](2)
	r.Send(1)
	r.Send(2)
	r.Send(3)
	if got := r.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	v, _ := r.Receive()
	if v != 1 {
		t.Errorf("head = %d, want 1", v)
	}
}

func TestRingConcurrentSPSC(t *testing.T) {
	const n = 100000
	r := NewRing[int](128)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if r.Send(i) {
				i++
			}
		}
	}()
	for i := 0; i < n; {
		v, ok := r.Receive()
		if !ok {
			continue
		}
		if v != i {
			t.Fatalf("out of order: got %d, want %d", v, i)
		}
		i++
	}
	wg.Wait()
}

func TestLinkDirectionsAreIndependent(t *testing.T) {
	l := NewLink(4)
	if !l.SendCmd(ClearScheduled{PlaybackID: "d1"}) {
		t.Fatal("SendCmd failed")
	}
	if !l.SendFeed(UpdateCursorFrame{Frame: 512}) {
		t.Fatal("SendFeed failed")
	}
	c, ok := l.ReceiveCmd()
	if !ok {
		t.Fatal("ReceiveCmd empty")
	}
	if cs, ok := c.(ClearScheduled); !ok || cs.PlaybackID != "d1" {
		t.Errorf("cmd = %#v, want ClearScheduled d1", c)
	}
	f, ok := l.ReceiveFeed()
	if !ok {
		t.Fatal("ReceiveFeed empty")
	}
	if uf, ok := f.(UpdateCursorFrame); !ok || uf.Frame != 512 {
		t.Errorf("feed = %#v, want UpdateCursorFrame 512", f)
	}
}
