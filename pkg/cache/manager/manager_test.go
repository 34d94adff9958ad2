package manager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/memwarden/memwarden/pkg/cache"
	io "github.com/memwarden/memwarden/pkg/cache/index/options"
	"github.com/memwarden/memwarden/pkg/cache/memory"
	co "github.com/memwarden/memwarden/pkg/cache/options"
	"github.com/memwarden/memwarden/pkg/cache/status"
)

type testPressure struct {
	used float64
}

func (p *testPressure) UsedPercent() float64 {
	return p.used
}

type testEvictor struct {
	memory.Cache
	objects     int64
	bytes       int64
	minFraction float64
	bytesNeeded int64
	calls       int
}

func (e *testEvictor) Usage() (int64, int64) {
	return e.objects, e.bytes
}

func (e *testEvictor) EvictOldest(minFraction float64, bytesNeeded int64) (int64, int64) {
	e.minFraction = minFraction
	e.bytesNeeded = bytesNeeded
	e.calls++
	return 1, 100
}

func (e *testEvictor) Reap() (int64, int64) {
	return 0, 0
}

func TestNewCache(t *testing.T) {
	opts := CacheOptions{
		UseIndex: true,
	}
	c := NewCache(nil, opts, co.New())
	require.NotNil(t, c)
	require.Equal(t, opts, c.(*Manager).opts)
}

func TestManager(t *testing.T) {
	opts := CacheOptions{
		UseIndex: true,
	}
	cacheConfig := co.Options{Provider: "memory", Index: io.New()}
	mc := memory.New("test", &cacheConfig)
	c := NewCache(mc, opts, &cacheConfig)

	t.Run("create/read", func(t *testing.T) {
		key := "foo"
		require.NoError(t, c.Store(key, []byte("bar"), 0))
		b, s, err := c.Retrieve(key)
		require.NoError(t, err)
		require.Equal(t, status.LookupStatusHit, s)
		require.Equal(t, []byte("bar"), b)
	})

	t.Run("create/read/delete", func(t *testing.T) {
		key := "foo"
		require.NoError(t, c.Store(key, []byte("bar"), 0))
		b, s, err := c.Retrieve(key)
		require.NoError(t, err)
		require.Equal(t, status.LookupStatusHit, s)
		require.Equal(t, []byte("bar"), b)
		require.NoError(t, c.Remove(key))
		b, s, err = c.Retrieve(key)
		require.ErrorContains(t, err, "key not found in cache")
		require.Equal(t, status.LookupStatusKeyMiss, s)
		require.Len(t, b, 0)
	})

	t.Run("create/update/read", func(t *testing.T) {
		key := "foo"
		require.NoError(t, c.Store(key, []byte("bar"), 0))
		b, s, err := c.Retrieve(key)
		require.NoError(t, err)
		require.Equal(t, status.LookupStatusHit, s)
		require.Equal(t, []byte("bar"), b)
		require.NoError(t, c.Store(key, []byte("baz"), 0))
		b, s, err = c.Retrieve(key)
		require.NoError(t, err)
		require.Equal(t, status.LookupStatusHit, s)
		require.Equal(t, []byte("baz"), b)
	})

	t.Run("reference", func(t *testing.T) {
		mc := c.(cache.MemoryCache)
		key := "foo"
		val := object{"bar"}
		require.NoError(t, mc.StoreReference(key, &val, 0))
		v, s, err := mc.RetrieveReference(key)
		require.NoError(t, err)
		require.Equal(t, status.LookupStatusHit, s)
		require.Equal(t, val, *v.(*object))
	})

	t.Run("stats", func(t *testing.T) {
		s := c.Stats().Snapshot()
		require.Positive(t, s.Hits)
		require.Positive(t, s.Misses)
		require.Positive(t, s.Writes)
		require.Zero(t, s.DroppedWrites)
	})
}

func TestConnectWiresIndex(t *testing.T) {
	cacheConfig := co.Options{Name: "test", Provider: "memory", Index: io.New()}
	cacheConfig.Index.ReapInterval = time.Hour
	mc := memory.New("test", &cacheConfig)
	c := NewCache(mc, CacheOptions{UseIndex: true}, &cacheConfig)

	require.NoError(t, c.Connect())
	defer c.Close()

	require.NoError(t, c.Store("foo", []byte("bar"), time.Minute))

	// the index tracks usage of governed writes
	objects, bytes := c.(*Manager).Usage()
	require.Equal(t, int64(1), objects)
	require.Equal(t, int64(3), bytes)
}

func TestWriteDropUnderPressure(t *testing.T) {
	cacheConfig := co.Options{Name: "test", Provider: "memory", Index: io.New(),
		WriteDropPercent: 90, CleanupPercent: 80}
	mc := memory.New("test", &cacheConfig)
	c := NewCache(mc, CacheOptions{}, &cacheConfig)

	ps := &testPressure{used: 95}
	c.SetPressureSource(ps)

	// at or above the ceiling, writes are dropped without error
	require.NoError(t, c.Store("foo", []byte("bar"), time.Minute))
	_, s, err := c.Retrieve("foo")
	require.ErrorIs(t, err, cache.ErrKNF)
	require.Equal(t, status.LookupStatusKeyMiss, s)
	require.Equal(t, int64(1), c.Stats().Snapshot().DroppedWrites)

	// below the ceiling, writes land
	ps.used = 50
	require.NoError(t, c.Store("foo", []byte("bar"), time.Minute))
	b, s, err := c.Retrieve("foo")
	require.NoError(t, err)
	require.Equal(t, status.LookupStatusHit, s)
	require.Equal(t, []byte("bar"), b)
}

func TestMaybeCleanup(t *testing.T) {
	cacheConfig := co.Options{Name: "test", Provider: "memory", Index: io.New(),
		WriteDropPercent: 90, CleanupPercent: 80}
	cacheConfig.Index.MaxSizeBytes = 1000
	cacheConfig.Index.MaxSizeBackoffBytes = 100

	ev := &testEvictor{objects: 10, bytes: 500}
	c := NewCache(ev, CacheOptions{}, &cacheConfig)
	ps := &testPressure{used: 50}
	c.SetPressureSource(ps)

	// no pressure and under budget: no eviction
	require.NoError(t, c.Store("foo", []byte("bar"), time.Minute))
	require.Zero(t, ev.calls)

	// at the cleanup threshold: evicts the oldest fraction
	ps.used = 80
	require.NoError(t, c.Store("foo", []byte("bar"), time.Minute))
	require.Equal(t, 1, ev.calls)
	require.Equal(t, 0.25, ev.minFraction)
	require.Zero(t, ev.bytesNeeded)

	// over the byte budget: evicts enough to admit the incoming write
	ps.used = 50
	ev.bytes = 1100
	require.NoError(t, c.Store("foo", []byte("bar"), time.Minute))
	require.Equal(t, 2, ev.calls)
	// overage (1100 + 3 - 1000) plus the backoff
	require.Equal(t, int64(203), ev.bytesNeeded)
}

func TestUsageUnsupported(t *testing.T) {
	cacheConfig := co.Options{Name: "test", Provider: "memory", Index: io.New()}
	mc := memory.New("test", &cacheConfig)
	c := NewCache(mc, CacheOptions{}, &cacheConfig)

	// the raw memory client does not report usage
	objects, bytes := c.(*Manager).Usage()
	require.Zero(t, objects)
	require.Zero(t, bytes)
}

type object struct {
	field string
}

func (o *object) Size() int {
	return len(o.field)
}
