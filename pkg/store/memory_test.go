package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGet(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, Clients, "c1", []byte("hello"), 0))
	got, ok, err := m.Get(ctx, Clients, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", string(got))
}

func TestMemoryStoreGetMissing(t *testing.T) {
	m := NewMemoryStore()
	_, ok, err := m.Get(context.Background(), Clients, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, AccessTokens, "tok", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := m.Get(ctx, AccessTokens, "tok")
	require.NoError(t, err)
	assert.False(t, ok, "expected expired entry to read as not-found")
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Delete(ctx, Clients, "never-existed"))
	require.NoError(t, m.Put(ctx, Clients, "c1", []byte("v"), 0))
	require.NoError(t, m.Delete(ctx, Clients, "c1"))
	require.NoError(t, m.Delete(ctx, Clients, "c1"), "second delete should also not error")
}

func TestMemoryStoreConsumeIsSingleUse(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, m.Put(ctx, AuthCodes, "code1", []byte("payload"), time.Minute))

	v1, ok1, _ := m.Consume(ctx, AuthCodes, "code1")
	v2, ok2, _ := m.Consume(ctx, AuthCodes, "code1")

	require.True(t, ok1)
	assert.Equal(t, "payload", string(v1))
	assert.False(t, ok2, "second consume of the same code should fail, got v=%q", v2)
}

func TestMemoryStoreConsumeConcurrentSingleWinner(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, m.Put(ctx, AuthCodes, "code1", []byte("payload"), time.Minute))

	const n = 20
	var wg sync.WaitGroup
	successes := make([]bool, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, ok, _ := m.Consume(ctx, AuthCodes, "code1")
			successes[i] = ok
		}(i)
	}
	wg.Wait()

	count := 0
	for _, ok := range successes {
		if ok {
			count++
		}
	}
	assert.Equal(t, 1, count, "expected exactly one successful Consume across %d concurrent callers", n)
}

func TestMemoryStoreConsumeExpiredIsNotFound(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, m.Put(ctx, AuthCodes, "code1", []byte("payload"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := m.Consume(ctx, AuthCodes, "code1")
	require.NoError(t, err)
	assert.False(t, ok, "expired code should not be consumable")
}
