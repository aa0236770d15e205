package store

import (
	"sort"
	"sync"
)

// Memory is the in-process implementation of Store. All mutations run under
// one mutex, which is what makes Increment atomic and subscription snapshots
// consistent. Values live in a tree of map[string]any branches.
type Memory struct {
	mu   sync.Mutex
	root map[string]any
	gen  *pushIDGen
	subs map[*Subscription]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		root: make(map[string]any),
		gen:  newPushIDGen(),
		subs: make(map[*Subscription]struct{}),
	}
}

func (m *Memory) Get(path string) (any, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	node, ok := m.lookup(parts)
	if !ok {
		return nil, nil
	}
	// Copy before releasing the lock; callers decode at their leisure while
	// writers keep mutating the tree.
	return deepCopy(node), nil
}

func (m *Memory) Set(path string, value any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	norm, err := normalize(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if norm == nil {
		m.remove(parts)
	} else {
		m.write(parts, norm)
	}
	m.notify(parts)
	return nil
}

func (m *Memory) Update(values map[string]any) error {
	type op struct {
		parts []string
		value any
	}
	ops := make([]op, 0, len(values))
	for path, v := range values {
		parts, err := splitPath(path)
		if err != nil {
			return err
		}
		norm, err := normalize(v)
		if err != nil {
			return err
		}
		ops = append(ops, op{parts, norm})
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range ops {
		if o.value == nil {
			m.remove(o.parts)
		} else {
			m.write(o.parts, o.value)
		}
	}
	for _, o := range ops {
		m.notify(o.parts)
	}
	return nil
}

func (m *Memory) Remove(path string) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(parts)
	m.notify(parts)
	return nil
}

func (m *Memory) Push(path string, value any) (string, error) {
	parts, err := splitPath(path)
	if err != nil {
		return "", err
	}
	norm, err := normalize(value)
	if err != nil {
		return "", err
	}
	key := m.gen.next()
	m.mu.Lock()
	defer m.mu.Unlock()
	child := append(append([]string{}, parts...), key)
	m.write(child, norm)
	m.notify(child)
	return key, nil
}

func (m *Memory) Increment(path string, delta int64) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := float64(0)
	if node, ok := m.lookup(parts); ok {
		if n, ok := node.(float64); ok {
			cur = n
		}
	}
	m.write(parts, cur+float64(delta))
	m.notify(parts)
	return nil
}

func (m *Memory) Query(path string, q Query) ([]Child, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.children(parts, q), nil
}

func (m *Memory) Subscribe(path string, q Query) *Subscription {
	sub := &Subscription{
		store: m,
		path:  path,
		query: q,
		ch:    make(chan []Child, 1),
	}
	parts, err := splitPath(path)
	if err != nil {
		// A malformed path yields a subscription that only ever sees an
		// empty snapshot; callers treat it like an empty collection.
		sub.ch <- nil
		return sub
	}
	sub.parts = parts
	m.mu.Lock()
	m.subs[sub] = struct{}{}
	sub.deliver(m.children(parts, q))
	m.mu.Unlock()
	return sub
}

// deepCopy detaches a value from the tree. Everything below a branch is
// map[string]any / []any / scalars after normalize, so a structural copy is
// a full snapshot.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

// lookup walks the tree; the caller holds the mutex.
func (m *Memory) lookup(parts []string) (any, bool) {
	var node any = m.root
	for _, p := range parts {
		branch, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = branch[p]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

func (m *Memory) write(parts []string, value any) {
	branch := m.root
	for _, p := range parts[:len(parts)-1] {
		next, ok := branch[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			branch[p] = next
		}
		branch = next
	}
	branch[parts[len(parts)-1]] = value
}

func (m *Memory) remove(parts []string) {
	branches := make([]map[string]any, 0, len(parts))
	branch := m.root
	for _, p := range parts[:len(parts)-1] {
		next, ok := branch[p].(map[string]any)
		if !ok {
			return
		}
		branches = append(branches, branch)
		branch = next
	}
	delete(branch, parts[len(parts)-1])
	// Prune now-empty parents so absent and empty paths are the same thing.
	for i := len(branches) - 1; i >= 0; i-- {
		if len(branch) > 0 {
			break
		}
		branch = branches[i]
		delete(branch, parts[i])
	}
}

func (m *Memory) children(parts []string, q Query) []Child {
	node, ok := m.lookup(parts)
	if !ok {
		return nil
	}
	branch, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	equalTo, _ := normalize(q.EqualTo)
	kids := make([]Child, 0, len(branch))
	for key, value := range branch {
		if q.EqualTo != nil && !looseEqual(orderField(value, q.OrderBy), equalTo) {
			continue
		}
		kids = append(kids, Child{Key: key, Value: deepCopy(value)})
	}
	sort.Slice(kids, func(i, j int) bool {
		if q.OrderBy != "" {
			a := orderField(kids[i].Value, q.OrderBy)
			b := orderField(kids[j].Value, q.OrderBy)
			if c := compareValues(a, b); c != 0 {
				return c < 0
			}
		}
		return kids[i].Key < kids[j].Key
	})
	if q.LimitToLast > 0 && len(kids) > q.LimitToLast {
		kids = kids[len(kids)-q.LimitToLast:]
	}
	return kids
}

// notify refreshes every subscription whose path overlaps the mutated one.
// The caller holds the mutex, so deliveries are serialized.
func (m *Memory) notify(parts []string) {
	for sub := range m.subs {
		if pathsOverlap(sub.parts, parts) {
			sub.deliver(m.children(sub.parts, sub.query))
		}
	}
}

func pathsOverlap(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func orderField(value any, field string) any {
	if field == "" {
		return nil
	}
	branch, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	return branch[field]
}

func looseEqual(a, b any) bool {
	return compareValues(a, b) == 0
}

// compareValues orders nil < bools < numbers < strings, matching how the
// backing store sorts mixed-type order-by fields.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
	return 0
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

// Subscription is a continuous ordered view over one path. Snapshots are
// conflated: a consumer that falls behind sees only the latest child set,
// never an intermediate backlog.
type Subscription struct {
	store  *Memory
	path   string
	parts  []string
	query  Query
	ch     chan []Child
	closed bool
}

// Snapshots returns the channel of full child-set snapshots. The channel is
// closed by Close.
func (s *Subscription) Snapshots() <-chan []Child {
	return s.ch
}

// deliver replaces any pending snapshot with the fresh one. Callers hold the
// store mutex, so only one deliver runs at a time.
func (s *Subscription) deliver(snap []Child) {
	if s.closed {
		return
	}
	select {
	case s.ch <- snap:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- snap
	}
}

// Close detaches the subscription and closes the snapshot channel.
func (s *Subscription) Close() {
	if s.store == nil {
		if !s.closed {
			s.closed = true
			close(s.ch)
		}
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.store.subs, s)
	close(s.ch)
}
