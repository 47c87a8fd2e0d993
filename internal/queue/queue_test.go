package queue

import (
	"sync"
	"testing"
)

// testItem is a simple struct for testing the generic queue
type testItem struct {
	ID   int
	Name string
}

func ids(items []testItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestQueue_New(t *testing.T) {
	q := New[testItem]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestQueue_Push(t *testing.T) {
	q := New[testItem]()

	q.Push(testItem{ID: 1, Name: "first"})
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}

	q.Push(testItem{ID: 2}, testItem{ID: 3})
	if q.Len() != 3 {
		t.Errorf("expected length 3, got %d", q.Len())
	}
}

func TestQueue_Drain(t *testing.T) {
	q := New[testItem]()
	q.Push(testItem{ID: 1}, testItem{ID: 2}, testItem{ID: 3}, testItem{ID: 4}, testItem{ID: 5})

	batch := q.Drain(2)
	if got := ids(batch); !equalInts(got, []int{1, 2}) {
		t.Errorf("expected [1 2], got %v", got)
	}
	if q.Len() != 3 {
		t.Errorf("expected 3 remaining, got %d", q.Len())
	}

	// n larger than the queue returns what is left
	batch = q.Drain(10)
	if got := ids(batch); !equalInts(got, []int{3, 4, 5}) {
		t.Errorf("expected [3 4 5], got %v", got)
	}
	if !q.Empty() {
		t.Error("expected empty queue after full drain")
	}

	if batch := q.Drain(3); len(batch) != 0 {
		t.Errorf("expected empty batch, got %v", batch)
	}
}

func TestQueue_DrainAll(t *testing.T) {
	q := New[testItem]()
	q.Push(testItem{ID: 1}, testItem{ID: 2})

	if got := ids(q.Drain(0)); !equalInts(got, []int{1, 2}) {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestQueue_DrainDoesNotAlias(t *testing.T) {
	q := New[testItem]()
	q.Push(testItem{ID: 1}, testItem{ID: 2}, testItem{ID: 3})

	batch := q.Drain(1)
	batch[0].ID = 99
	q.Push(testItem{ID: 4})

	if got := ids(q.Drain(0)); !equalInts(got, []int{2, 3, 4}) {
		t.Errorf("expected [2 3 4], got %v", got)
	}
}

func TestQueue_PushFront(t *testing.T) {
	q := New[testItem]()
	q.Push(testItem{ID: 3}, testItem{ID: 4})

	q.PushFront(testItem{ID: 1}, testItem{ID: 2})
	q.PushFront()

	if got := ids(q.Drain(0)); !equalInts(got, []int{1, 2, 3, 4}) {
		t.Errorf("expected [1 2 3 4], got %v", got)
	}
}

func TestQueue_FailedBatchRoundTrip(t *testing.T) {
	q := New[testItem]()
	q.Push(testItem{ID: 1}, testItem{ID: 2}, testItem{ID: 3})

	batch := q.Drain(2)
	q.Push(testItem{ID: 4})
	q.PushFront(batch...)

	if got := ids(q.Drain(0)); !equalInts(got, []int{1, 2, 3, 4}) {
		t.Errorf("expected order preserved, got %v", got)
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[testItem]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.Push(testItem{ID: id})
		}(i)
	}
	wg.Wait()

	if q.Len() != 100 {
		t.Errorf("expected 100 items, got %d", q.Len())
	}

	results := make(chan []testItem, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- q.Drain(7)
		}()
	}
	wg.Wait()
	close(results)

	total := 0
	for r := range results {
		total += len(r)
	}
	if total != 70 {
		t.Errorf("expected 70 drained items, got %d", total)
	}
	if q.Len() != 30 {
		t.Errorf("expected 30 items left, got %d", q.Len())
	}
}
