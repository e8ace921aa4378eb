package ecs

import "testing"

func TestEntityPool_ReusesSlotWithNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	if a.IsZero() {
		t.Fatalf("first id is zero")
	}
	p.Destroy(a)
	if p.Alive(a) {
		t.Fatalf("destroyed id still alive")
	}
	b := p.Create()
	if b.Index() != a.Index() || b.Generation() != a.Generation()+1 {
		t.Fatalf("reused id = (%d,%d), want (%d,%d)", b.Index(), b.Generation(), a.Index(), a.Generation()+1)
	}
	if !p.Alive(b) {
		t.Fatalf("new id not alive")
	}
	if p.Alive(0) {
		t.Fatalf("zero id reported alive")
	}
}

func TestStore_OrderSurvivesRemoval(t *testing.T) {
	s := NewStore[int]()
	vals := []int{10, 20, 30, 40}
	for i := range vals {
		s.Set(EntityID(i+1), &vals[i])
	}
	s.Remove(2)

	var got []int
	s.Each(func(_ EntityID, v *int) { got = append(got, *v) })
	want := []int{10, 30, 40}
	if len(got) != len(want) {
		t.Fatalf("Each visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Each visited %v, want %v", got, want)
		}
	}
	if v, ok := s.Get(4); !ok || *v != 40 {
		t.Fatalf("Get(4) after removal = %v, %v", v, ok)
	}
}

func TestWorld_FlushRemovesFromStores(t *testing.T) {
	w := NewWorld()
	names := NewStore[string]()
	w.Register(names)

	id := w.CreateEntity()
	n := "runner"
	names.Set(id, &n)

	w.MarkForDestruction(id)
	if !names.Has(id) {
		t.Fatalf("component removed before flush")
	}
	destroyed := w.FlushDestroyQueue()
	if len(destroyed) != 1 || destroyed[0] != id {
		t.Fatalf("destroyed = %v, want [%d]", destroyed, id)
	}
	if names.Has(id) || w.Alive(id) {
		t.Fatalf("entity survived flush")
	}
	if again := w.FlushDestroyQueue(); again != nil {
		t.Fatalf("second flush destroyed %v", again)
	}
}

func TestEach2_VisitsIntersection(t *testing.T) {
	a := NewStore[int]()
	b := NewStore[string]()
	one, two, three := 1, 2, 3
	x := "x"
	a.Set(1, &one)
	a.Set(2, &two)
	a.Set(3, &three)
	b.Set(2, &x)

	var seen []EntityID
	Each2(a, b, func(id EntityID, _ *int, _ *string) { seen = append(seen, id) })
	if len(seen) != 1 || seen[0] != 2 {
		t.Fatalf("Each2 visited %v, want [2]", seen)
	}
}
