package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Priya8975/guildlog/internal/colors"
	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/Priya8975/guildlog/internal/errdef"
	"github.com/Priya8975/guildlog/internal/logging"
	"github.com/Priya8975/guildlog/internal/store"
	"github.com/stretchr/testify/require"
)

const testToken = "s3cret"

type stubNames struct {
	mu    sync.Mutex
	names map[int64]string
	calls int
}

func (s *stubNames) Resolve(_ context.Context, id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if n, ok := s.names[id]; ok {
		return n
	}
	return strconv.FormatInt(id, 10)
}

type recordingMirror struct {
	mu   sync.Mutex
	recs []domain.EventRecord
}

func (m *recordingMirror) Submit(rec domain.EventRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return true
}

var errBackend = errors.New("connection reset")

func storeErr() error {
	return errdef.NewStore("querying events: %w", errBackend)
}

// failingStore fails every operation with a store error.
type failingStore struct{}

func (failingStore) InsertEvent(context.Context, domain.NewEventRecord) (*domain.EventRecord, error) {
	return nil, storeErr()
}

func (failingStore) ListEventsPage(context.Context, domain.EventFilter, string, int) (*domain.EventPage, error) {
	return nil, storeErr()
}

func (failingStore) CountEvents(context.Context) ([]domain.EventCount, error) {
	return nil, storeErr()
}

func (failingStore) InsertVerifiedEmail(context.Context, int64, string) (*domain.VerifiedEmail, error) {
	return nil, storeErr()
}

func (failingStore) Ping(context.Context) error { return errBackend }

type testEnv struct {
	store  *store.MemoryStore
	names  *stubNames
	mirror *recordingMirror
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:  store.NewMemory(),
		names:  &stubNames{names: map[int64]string{42: "Test Guild"}},
		mirror: &recordingMirror{},
	}
	env.router = NewRouter(Deps{
		Log:     logging.Discard(),
		Events:  env.store,
		Emails:  env.store,
		Names:   env.names,
		Palette: colors.NewPalette(domain.KnownEventTypes),
		Token:   testToken,
		Mirror:  env.mirror,
		Version: "test",
		Checks:  map[string]Pinger{"store": env.store},
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, recs ...domain.NewEventRecord) {
	t.Helper()
	for _, r := range recs {
		_, err := e.store.InsertEvent(context.Background(), r)
		require.NoError(t, err)
	}
}

func (e *testEnv) all(t *testing.T) []domain.EventRecord {
	t.Helper()
	page, err := e.store.ListEventsPage(context.Background(), domain.EventFilter{}, "", 1000)
	require.NoError(t, err)
	return page.Events
}
