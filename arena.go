package nn

// arena stores index nodes in a growable slice and hands out int32 slots.
// Every release bumps the slot's generation so that element handles still
// pointing at a recycled slot can be detected.
type arena[T any] struct {
	items []T
	gens  []uint32
	free  []int32
}

const noSlot int32 = -1

func (a *arena[T]) alloc() int32 {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	var zero T
	a.items = append(a.items, zero)
	a.gens = append(a.gens, 1)
	return int32(len(a.items) - 1)
}

func (a *arena[T]) release(id int32) {
	var zero T
	a.items[id] = zero
	a.gens[id]++
	a.free = append(a.free, id)
}

// at returns a pointer into the backing slice. It is invalidated by the
// next alloc.
func (a *arena[T]) at(id int32) *T { return &a.items[id] }

func (a *arena[T]) gen(id int32) uint32 { return a.gens[id] }

func (a *arena[T]) valid(id int32, gen uint32) bool {
	return id >= 0 && int(id) < len(a.items) && a.gens[id] == gen
}

// live returns the number of allocated slots.
func (a *arena[T]) live() int { return len(a.items) - len(a.free) }

// reset releases every slot. Generations keep counting up.
func (a *arena[T]) reset() {
	var zero T
	a.free = a.free[:0]
	for i := len(a.items) - 1; i >= 0; i-- {
		a.items[i] = zero
		a.gens[i]++
		a.free = append(a.free, int32(i))
	}
}

// bucketRemove unlinks the element at pos by moving the last element into
// its place, keeping the moved element's position current.
func bucketRemove(bucket []*Element, pos int) []*Element {
	last := len(bucket) - 1
	if pos != last {
		bucket[pos] = bucket[last]
		bucket[pos].pos = pos
	}
	bucket[last] = nil
	return bucket[:last]
}
