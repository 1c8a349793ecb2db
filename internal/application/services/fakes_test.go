package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tempfiles-api/internal/domain/resource"
	"tempfiles-api/internal/domain/token"
	"tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/infrastructure/hasher"
	"tempfiles-api/internal/infrastructure/metrics"
	"tempfiles-api/internal/infrastructure/mq"
	"tempfiles-api/internal/infrastructure/storage"
)

var errBoom = errors.New("boom")

func testHasher() *hasher.Hasher {
	return hasher.New(hasher.Params{Iterations: 1, MemoryKiB: 64, Threads: 1, KeyLength: 32}, rand.Reader, 4)
}

func testCounter() *prometheus.CounterVec {
	return metrics.NewCounterWith(prometheus.NewRegistry())
}

func counted(c *prometheus.CounterVec, label string) float64 {
	return testutil.ToFloat64(c.WithLabelValues(label))
}

// memUsers

type memUsers struct {
	mu        sync.Mutex
	rows      map[user.ID]*user.User
	nextID    user.ID
	calls     int
	fetchErr  error
	createErr error
	touchErr  error
	touched   []user.ID
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[user.ID]*user.User)}
}

func (m *memUsers) add(t *testing.T, email, name, hash string) *user.User {
	t.Helper()
	u, err := m.CreateUser(context.Background(), user.User{Email: email, Name: name, PasswordHash: hash, Kind: user.KindStandard})
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	m.calls = 0
	return u
}

func (m *memUsers) FetchUserByID(_ context.Context, id user.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, u := range m.rows {
		if u.UUID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, m.fetchErr
}

func (m *memUsers) FetchUserByInternalID(_ context.Context, id user.ID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if u, ok := m.rows[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) FetchUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) CreateUser(_ context.Context, req user.User) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, u := range m.rows {
		if u.Email == req.Email {
			return nil, user.ErrEmailAlreadyExists
		}
		if u.Name == req.Name {
			return nil, user.ErrNameAlreadyExists
		}
	}
	m.nextID++
	req.ID = m.nextID
	req.UUID = uuid.New()
	req.CreatedAt = time.Now().UTC()
	m.rows[req.ID] = &req
	cp := req
	return &cp, nil
}

func (m *memUsers) TouchLastAction(_ context.Context, id user.ID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.touchErr != nil {
		return m.touchErr
	}
	m.touched = append(m.touched, id)
	if u, ok := m.rows[id]; ok {
		u.LastActionAt = &at
	}
	return nil
}

// memTokens

type memTokens struct {
	mu        sync.Mutex
	rows      []*token.Token
	nextID    token.ID
	fetchErr  error
	createErr error
}

func (m *memTokens) FetchAllTokens(context.Context) (token.Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	out := make(token.Tokens, len(m.rows))
	for i, t := range m.rows {
		cp := *t
		out[i] = &cp
	}
	return out, nil
}

func (m *memTokens) FetchUserTokens(_ context.Context, userID user.ID) (token.Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out token.Tokens
	for _, t := range m.rows {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTokens) CreateToken(_ context.Context, req token.Token) (*token.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, t := range m.rows {
		if t.UserID == req.UserID && t.Name == req.Name {
			return nil, token.ErrNameAlreadyExists
		}
	}
	m.nextID++
	req.ID = m.nextID
	m.rows = append(m.rows, &req)
	cp := req
	return &cp, nil
}

func (m *memTokens) DeleteUserToken(_ context.Context, userID user.ID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.rows {
		if t.UserID == userID && t.Name == name {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// memResources

type memResources struct {
	mu         sync.Mutex
	rows       map[resource.ID]*resource.Resource
	listCalls  int
	listErr    error
	listPanic  bool
	existsErr  error
	createErr  error
	deleteErrs map[resource.ID]error
}

func newMemResources() *memResources {
	return &memResources{rows: make(map[resource.ID]*resource.Resource), deleteErrs: make(map[resource.ID]error)}
}

func (m *memResources) put(r *resource.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = r
}

func (m *memResources) has(id resource.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	return ok
}

func (m *memResources) FetchResource(_ context.Context, id resource.ID) (*resource.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *memResources) FetchResources(context.Context) (resource.Resources, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listPanic {
		panic("corrupted listing")
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make(resource.Resources, 0, len(m.rows))
	for _, r := range m.rows {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memResources) Exists(_ context.Context, id resource.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memResources) CreateResource(_ context.Context, req resource.Resource) (*resource.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.rows[req.ID]; ok {
		return nil, resource.ErrAlreadyExists
	}
	m.rows[req.ID] = &req
	cp := req
	return &cp, nil
}

func (m *memResources) DeleteResource(_ context.Context, id resource.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErrs[id]; err != nil {
		return err
	}
	delete(m.rows, id)
	return nil
}

// memStorage

type memStorage struct {
	mu          sync.Mutex
	files       map[resource.ID]map[string][]byte
	existsErr   error
	putErr      error
	removeErrs  map[resource.ID]error
	removePanic map[resource.ID]bool
	namesErrs   map[resource.ID]error
}

func newMemStorage() *memStorage {
	return &memStorage{
		files:       make(map[resource.ID]map[string][]byte),
		removeErrs:  make(map[resource.ID]error),
		removePanic: make(map[resource.ID]bool),
		namesErrs:   make(map[resource.ID]error),
	}
}

func (m *memStorage) has(id resource.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[id]
	return ok
}

func (m *memStorage) Exists(_ context.Context, id resource.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.files[id]
	return ok, nil
}

func (m *memStorage) Put(_ context.Context, id resource.ID, name string, r io.Reader, _ int64) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files[id] == nil {
		m.files[id] = make(map[string][]byte)
	}
	if m.putErr != nil {
		return m.putErr
	}
	m.files[id][name] = b
	return nil
}

func (m *memStorage) Open(_ context.Context, id resource.ID, name string) (io.ReadCloser, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[id][name]
	if !ok {
		return nil, 0, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), int64(len(b)), nil
}

func (m *memStorage) Names(_ context.Context, id resource.ID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.namesErrs[id]; err != nil {
		return nil, err
	}
	dir, ok := m.files[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	names := make([]string, 0, len(dir))
	for n := range dir {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memStorage) RemoveAll(_ context.Context, id resource.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removePanic[id] {
		panic("storage driver crashed")
	}
	if err := m.removeErrs[id]; err != nil {
		return err
	}
	delete(m.files, id)
	return nil
}

func (m *memStorage) Probe(context.Context) error { return nil }

// recorder

type recorder struct {
	mu     sync.Mutex
	events []mq.Event
}

func (r *recorder) Emit(e mq.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

// seqSource replays fixed values, then keeps returning the last one.
type seqSource struct {
	mu    sync.Mutex
	vals  []uint64
	draws int
}

func (s *seqSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.draws
	if i >= len(s.vals) {
		i = len(s.vals) - 1
	}
	s.draws++
	return s.vals[i]
}

func (s *seqSource) Read(p []byte) (int, error) { return rand.Read(p) }
