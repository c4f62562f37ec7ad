// ABOUTME: Tests for the resource collection reconciliation rules
// ABOUTME: Head insertion, in-place update, idempotent removal and snapshots

package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/keepsake/internal/resource"
)

func ids[T resource.Item](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ItemID()
	}
	return out
}

func TestCollection_ReplaceAllTrustsAuthorityOrder(t *testing.T) {
	c := New[resource.MemoryArticle](NewestFirst)
	assert.False(t, c.Populated())

	c.ReplaceAll([]resource.MemoryArticle{{ID: "a"}, {ID: "c"}, {ID: "b"}, {ID: "a", Title: "dup"}})
	assert.True(t, c.Populated())
	assert.Equal(t, []string{"a", "c", "b"}, ids(c.Snapshot()))

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Empty(t, got.Title)
}

func TestCollection_UpsertCreateNewestFirst(t *testing.T) {
	c := New[resource.MerchandiseItem](NewestFirst)
	c.ReplaceAll([]resource.MerchandiseItem{{ID: "old1"}, {ID: "old2"}})

	created := c.Upsert(resource.MerchandiseItem{ID: "abc123", Name: "Mug"})
	assert.True(t, created)
	assert.Equal(t, []string{"abc123", "old1", "old2"}, ids(c.Snapshot()))
}

func TestCollection_UpsertCreateUnordered(t *testing.T) {
	c := New[resource.ContactEntry](Unordered)
	c.ReplaceAll([]resource.ContactEntry{{ID: "1"}})

	assert.True(t, c.Upsert(resource.ContactEntry{ID: "2"}))
	assert.Equal(t, []string{"1", "2"}, ids(c.Snapshot()))
}

func TestCollection_UpsertUpdateInPlace(t *testing.T) {
	c := New[resource.Order](NewestFirst)
	c.ReplaceAll([]resource.Order{{ID: "o3"}, {ID: "o2"}, {ID: "o1"}})

	created := c.Upsert(resource.Order{ID: "o2", Status: resource.OrderCompleted})
	assert.False(t, created)
	assert.Equal(t, []string{"o3", "o2", "o1"}, ids(c.Snapshot()))

	got, ok := c.Get("o2")
	require.True(t, ok)
	assert.Equal(t, resource.OrderCompleted, got.Status)
}

func TestCollection_Remove(t *testing.T) {
	c := New[resource.MemoryArticle](NewestFirst)
	c.ReplaceAll([]resource.MemoryArticle{{ID: "a"}, {ID: "b"}})

	assert.True(t, c.Remove("a"))
	assert.Equal(t, []string{"b"}, ids(c.Snapshot()))

	before := c.Snapshot()
	assert.False(t, c.Remove("a"))
	assert.Equal(t, before, c.Snapshot())
}

func TestCollection_SnapshotIsACopy(t *testing.T) {
	c := New[resource.ContactEntry](Unordered)
	c.ReplaceAll([]resource.ContactEntry{{ID: "1", Name: "Ann"}})

	snap := c.Snapshot()
	snap[0].Name = "changed"

	got, _ := c.Get("1")
	assert.Equal(t, "Ann", got.Name)
}

func TestCollection_Reset(t *testing.T) {
	c := New[resource.Order](NewestFirst)
	c.ReplaceAll([]resource.Order{{ID: "o1"}})
	c.Reset()

	assert.False(t, c.Populated())
	assert.Equal(t, 0, c.Len())
}

func TestCollection_ConcurrentUpserts(t *testing.T) {
	c := New[resource.ContactEntry](Unordered)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Upsert(resource.ContactEntry{ID: resource.ID(fmt.Sprint(i % 10))})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
}

func TestOrderingFor(t *testing.T) {
	assert.Equal(t, Unordered, OrderingFor(resource.KindContacts))
	assert.Equal(t, NewestFirst, OrderingFor(resource.KindOrders))
}
