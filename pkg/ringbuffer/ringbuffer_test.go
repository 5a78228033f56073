package ringbuffer

import (
	"reflect"
	"sync"
	"testing"
)

func TestRingBuffer_Push(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pushes   int
		want     []int
	}{
		{
			name:     "empty",
			capacity: 3,
			pushes:   0,
			want:     []int{},
		},
		{
			name:     "below capacity",
			capacity: 3,
			pushes:   2,
			want:     []int{0, 1},
		},
		{
			name:     "exactly at capacity",
			capacity: 3,
			pushes:   3,
			want:     []int{0, 1, 2},
		},
		{
			name:     "overflow keeps most recent in order",
			capacity: 3,
			pushes:   7,
			want:     []int{4, 5, 6},
		},
		{
			name:     "zero capacity clamped to one",
			capacity: 0,
			pushes:   4,
			want:     []int{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New[int](tt.capacity)
			for i := 0; i < tt.pushes; i++ {
				b.Push(i)
			}

			got := b.ToList()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ToList() = %v, want %v", got, tt.want)
			}
			if b.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", b.Len(), len(tt.want))
			}
		})
	}
}

// TestRingBuffer_LengthNeverExceedsCapacity pushes far past capacity and
// checks the last capacity items survive in original order.
func TestRingBuffer_LengthNeverExceedsCapacity(t *testing.T) {
	const capacity = 1000
	b := New[int](capacity)

	for i := 0; i < 2500; i++ {
		b.Push(i)
		if b.Len() > capacity {
			t.Fatalf("Len() = %d after %d pushes, exceeds capacity %d", b.Len(), i+1, capacity)
		}
	}

	got := b.ToList()
	if len(got) != capacity {
		t.Fatalf("len(ToList()) = %d, want %d", len(got), capacity)
	}
	for i, v := range got {
		if want := 1500 + i; v != want {
			t.Fatalf("ToList()[%d] = %d, want %d", i, v, want)
		}
	}
}

func TestRingBuffer_Last(t *testing.T) {
	b := New[string](2)

	if _, ok := b.Last(); ok {
		t.Error("Last() on empty buffer should report false")
	}

	b.Push("a")
	b.Push("b")
	b.Push("c")

	last, ok := b.Last()
	if !ok || last != "c" {
		t.Errorf("Last() = %q, %v, want %q, true", last, ok, "c")
	}
}

func TestRingBuffer_ToListIsCopy(t *testing.T) {
	b := New[int](2)
	b.Push(1)

	list := b.ToList()
	list[0] = 99

	if got := b.ToList()[0]; got != 1 {
		t.Errorf("mutating ToList() result changed buffer: got %d, want 1", got)
	}
}

func TestRingBuffer_ConcurrentPush(t *testing.T) {
	b := New[int](100)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				b.Push(i)
			}
		}()
	}
	wg.Wait()

	if b.Len() != b.Cap() {
		t.Errorf("Len() = %d, want %d", b.Len(), b.Cap())
	}
}
