package util

import "testing"

// TestStackPushPeekPop verifies LIFO order and that Peek does not consume an element.
func TestStackPushPeekPop(t *testing.T) {
	var s Stack
	s.Push(1)
	s.Push(2)
	s.Push(3)

	if got := s.Peek(); got != 3 {
		t.Fatalf("Peek() = %v, want 3", got)
	}
	if got := s.Size(); got != 3 {
		t.Fatalf("Size() = %d, want 3", got)
	}

	want := []int{3, 2, 1}
	for _, w := range want {
		got := s.Pop()
		if got != w {
			t.Errorf("Pop() = %v, want %v", got, w)
		}
	}
	if s.Size() != 0 {
		t.Errorf("Size() after draining = %d, want 0", s.Size())
	}
}

// TestStackEmptyReturnsNil verifies Pop and Peek on an empty stack return nil rather than panic.
func TestStackEmptyReturnsNil(t *testing.T) {
	var s Stack
	if got := s.Pop(); got != nil {
		t.Errorf("Pop() on empty stack = %v, want nil", got)
	}
	if got := s.Peek(); got != nil {
		t.Errorf("Peek() on empty stack = %v, want nil", got)
	}
}

// TestStackPushNilIsNoOp verifies the stack refuses to store nil values, per its documented
// contract.
func TestStackPushNilIsNoOp(t *testing.T) {
	var s Stack
	s.Push(nil)
	if s.Size() != 0 {
		t.Errorf("Size() after pushing nil = %d, want 0", s.Size())
	}
}

// TestStackGet verifies Get(n) indexes top-down, 1-based, and rejects out-of-range n.
func TestStackGet(t *testing.T) {
	var s Stack
	s.Push("bottom")
	s.Push("middle")
	s.Push("top")

	if got := s.Get(1); got != "top" {
		t.Errorf("Get(1) = %v, want %q", got, "top")
	}
	if got := s.Get(3); got != "bottom" {
		t.Errorf("Get(3) = %v, want %q", got, "bottom")
	}
	if got := s.Get(0); got != nil {
		t.Errorf("Get(0) = %v, want nil", got)
	}
	if got := s.Get(4); got != nil {
		t.Errorf("Get(4) = %v, want nil", got)
	}
}
