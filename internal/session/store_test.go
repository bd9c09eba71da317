package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(ttl, nil)
	s.now = clock.now
	return s, clock
}

func TestStartAndGet(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	st := s.Start()
	require.NotEmpty(t, st.ID)
	assert.False(t, st.HasYear())

	got, ok := s.Get(st.ID)
	require.True(t, ok)
	assert.Equal(t, st.ID, got.ID)
	assert.Equal(t, 1, s.Len())
}

func TestGet_UnknownAndMalformed(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	_, ok := s.Get("not-a-uuid")
	assert.False(t, ok)

	_, ok = s.Get("6f1c1e2a-6d55-4b8e-9f4d-2f3f0b8f8e11")
	assert.False(t, ok)
}

func TestSetYear(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	st := s.Start()

	updated, ok := s.SetYear(st.ID, 2014)
	require.True(t, ok)
	assert.Equal(t, 2014, updated.Year)

	got, ok := s.Get(st.ID)
	require.True(t, ok)
	assert.Equal(t, 2014, got.Year)

	_, ok = s.SetYear("6f1c1e2a-6d55-4b8e-9f4d-2f3f0b8f8e11", 2015)
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	s, clock := newTestStore(time.Hour)
	old := s.Start()

	clock.t = clock.t.Add(2 * time.Hour)
	_, ok := s.Get(old.ID)
	assert.False(t, ok, "idle session must expire")

	stale := s.Start()
	clock.t = clock.t.Add(2 * time.Hour)
	fresh := s.Start()

	assert.Equal(t, 1, s.Len(), "starting a session sweeps expired ones")
	_, ok = s.Get(stale.ID)
	assert.False(t, ok)
	_, ok = s.Get(fresh.ID)
	assert.True(t, ok)
}

func TestEndAndClose(t *testing.T) {
	s, _ := newTestStore(0)
	a := s.Start()
	s.Start()

	s.End(a.ID)
	assert.Equal(t, 1, s.Len())

	s.Close()
	assert.Equal(t, 0, s.Len())
}
