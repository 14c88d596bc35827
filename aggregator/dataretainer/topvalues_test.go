package dataretainer

import (
	"reflect"
	"testing"
)

func keysOf[V interface{ ~int | ~float64 }](entries []Entry[V]) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func TestTopNLargest(t *testing.T) {
	top := NewTopN[float64](3, true)
	inputs := []Entry[float64]{
		{Key: "a", Value: 120.50},
		{Key: "b", Value: 999.99},
		{Key: "c", Value: 45.00},
		{Key: "d", Value: 500.00},
		{Key: "e", Value: 700.25},
	}
	for _, e := range inputs {
		top.Insert(e)
	}
	got := keysOf(top.Values())
	want := []string{"b", "e", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTopNSmallest(t *testing.T) {
	top := NewTopN[int](2, false)
	for _, e := range []Entry[int]{
		{Key: "a", Value: 9},
		{Key: "b", Value: 1},
		{Key: "c", Value: 4},
	} {
		top.Insert(e)
	}
	got := keysOf(top.Values())
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTopNTiesBreakOnKeyRegardlessOfInsertionOrder(t *testing.T) {
	forward := NewTopN[int](2, true)
	backward := NewTopN[int](2, true)
	entries := []Entry[int]{
		{Key: "zeta", Value: 10},
		{Key: "alpha", Value: 10},
		{Key: "mid", Value: 10},
	}
	for i := range entries {
		forward.Insert(entries[i])
		backward.Insert(entries[len(entries)-1-i])
	}
	got := keysOf(forward.Values())
	want := []string{"alpha", "mid"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("forward: got %v, want %v", got, want)
	}
	if !reflect.DeepEqual(keysOf(backward.Values()), want) {
		t.Fatalf("backward: got %v, want %v", keysOf(backward.Values()), want)
	}
}

func TestTopNPayloadSurvives(t *testing.T) {
	top := NewTopN[int](1, true)
	top.Insert(Entry[int]{Key: "a", Value: 5, Payload: "kept"})
	values := top.Values()
	if len(values) != 1 || values[0].Payload.(string) != "kept" {
		t.Fatalf("payload lost: %v", values)
	}
}
