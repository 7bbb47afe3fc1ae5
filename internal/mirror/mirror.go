package mirror

// Mirror is the client-local copy of the array. Its length is fixed at
// construction; callers bounds-check before Get and Set.
type Mirror struct {
	values []int32
}

func New(values []int32) *Mirror {
	stored := make([]int32, len(values))
	copy(stored, values)
	return &Mirror{values: stored}
}

func (m *Mirror) Len() int {
	return len(m.values)
}

func (m *Mirror) InBounds(i int) bool {
	return i >= 0 && i < len(m.values)
}

func (m *Mirror) Get(i int) int32 {
	return m.values[i]
}

func (m *Mirror) Set(i int, v int32) {
	m.values[i] = v
}

// Snapshot returns a copy of the current contents.
func (m *Mirror) Snapshot() []int32 {
	out := make([]int32, len(m.values))
	copy(out, m.values)
	return out
}
