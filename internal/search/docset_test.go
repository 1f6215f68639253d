package search

import (
	"reflect"
	"testing"
)

func TestDocSetOps(t *testing.T) {
	a := NewDocSet(0, 1, 2)
	b := NewDocSet(1, 2, 3)

	if got := a.Intersect(b).Sorted(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Intersect = %v, want [1 2]", got)
	}
	if got := a.Union(b).Sorted(); !reflect.DeepEqual(got, []int{0, 1, 2, 3}) {
		t.Errorf("Union = %v, want [0 1 2 3]", got)
	}
	if got := a.Complement(5).Sorted(); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("Complement = %v, want [3 4]", got)
	}
}

func TestDocSetEmpty(t *testing.T) {
	empty := DocSet{}
	if got := empty.Sorted(); got == nil || len(got) != 0 {
		t.Errorf("Sorted on empty set = %v, want non-nil empty slice", got)
	}
	if got := empty.Complement(3).Sorted(); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("Complement of empty = %v, want the universe", got)
	}
	if got := Universe(0); len(got) != 0 {
		t.Errorf("Universe(0) = %v, want empty", got)
	}
}

func TestDocSetEqual(t *testing.T) {
	if !NewDocSet(1, 2).Equal(NewDocSet(2, 1)) {
		t.Error("order must not matter for Equal")
	}
	if NewDocSet(1).Equal(NewDocSet(1, 2)) {
		t.Error("sets of different size reported equal")
	}
}
