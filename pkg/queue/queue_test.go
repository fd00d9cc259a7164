package queue

import (
    "errors"
    "testing"
)

func TestFIFOOrderAndBound(t *testing.T) {
    q := New[int](3)
    for i := 1; i <= 3; i++ {
        if err := q.Push(i); err != nil { t.Fatalf("push %d: %v", i, err) }
    }
    if !q.Full() { t.Fatalf("queue should be full") }
    if err := q.Push(4); !errors.Is(err, ErrFull) { t.Fatalf("want ErrFull, got %v", err) }
    if q.Len() != 3 { t.Fatalf("len = %d after rejected push", q.Len()) }

    head, ok := q.Peek()
    if !ok || *head != 1 { t.Fatalf("peek = %v", head) }
    *head = 10
    for _, want := range []int{10, 2, 3} {
        got, ok := q.Pop()
        if !ok || got != want { t.Fatalf("pop = %d, want %d", got, want) }
    }
    if _, ok := q.Pop(); ok { t.Fatalf("pop on empty queue succeeded") }
    if q.Free() != 3 { t.Fatalf("free = %d", q.Free()) }
}

func TestFIFOCompactionKeepsOrder(t *testing.T) {
    q := New[int](0)
    next := 0
    for i := 0; i < 500; i++ {
        _ = q.Push(i)
        if i%3 == 0 {
            got, _ := q.Pop()
            if got != next { t.Fatalf("pop = %d, want %d", got, next) }
            next++
        }
    }
    for !q.Empty() {
        got, _ := q.Pop()
        if got != next { t.Fatalf("pop = %d, want %d", got, next) }
        next++
    }
    if next != 500 { t.Fatalf("drained %d items", next) }
    if q.Free() != -1 { t.Fatalf("unbounded queue should report -1 free") }
}
