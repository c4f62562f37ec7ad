// ABOUTME: Shared Store behaviour tests run against every implementation
// ABOUTME: MockStore and SQLStore must agree on ordering, defaults and ErrNotFound

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/keepsake/internal/resource"
)

func TestMockStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store { return NewMockStore() })
}

func TestMockStore_Err(t *testing.T) {
	m := NewMockStore()
	m.Err = errors.New("disk on fire")

	_, err := m.ListOrders(context.Background(), true)
	assert.EqualError(t, err, "disk on fire")
	assert.Error(t, m.CreateContact(context.Background(), &resource.ContactEntry{Name: "x", Role: "y"}))
}

func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	t.Run("contacts keep insertion order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := &resource.ContactEntry{Name: "Ana", Role: "Monitor", CreatedAt: at(0)}
		second := &resource.ContactEntry{Name: "Bo", Role: "Member", Email: "bo@example.com", CreatedAt: at(1)}
		require.NoError(t, s.CreateContact(ctx, first))
		require.NoError(t, s.CreateContact(ctx, second))
		assert.NotEmpty(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)

		got, err := s.ListContacts(ctx, false)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Ana", got[0].Name)
		assert.Equal(t, "bo@example.com", got[1].Email)
		assert.True(t, got[1].CreatedAt.Equal(at(1)))

		require.NoError(t, s.DeleteContact(ctx, string(first.ID)))
		assert.ErrorIs(t, s.DeleteContact(ctx, string(first.ID)), ErrNotFound)

		got, err = s.ListContacts(ctx, false)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("memories newest first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i, title := range []string{"Day one", "Graduation", "Reunion"} {
			require.NoError(t, s.CreateMemory(ctx, &resource.MemoryArticle{
				Title: title, Content: "# " + title, Author: "Admin", CreatedAt: at(i),
			}))
		}

		got, err := s.ListMemories(ctx, true)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Reunion", got[0].Title)
		assert.Equal(t, "Day one", got[2].Title)
		assert.Equal(t, "# Reunion", got[0].Content)

		asc, err := s.ListMemories(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, "Day one", asc[0].Title)

		assert.ErrorIs(t, s.DeleteMemory(ctx, "missing"), ErrNotFound)
	})

	t.Run("guestbook messages", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		got, err := s.ListMessages(ctx, true)
		require.NoError(t, err)
		assert.Empty(t, got)

		first := &resource.GuestbookMessage{Name: "Lin", Content: "Miss you all", CreatedAt: at(0)}
		require.NoError(t, s.CreateMessage(ctx, first))
		require.NoError(t, s.CreateMessage(ctx, &resource.GuestbookMessage{Name: "Wei", Content: "See you in June"}))
		assert.NotEmpty(t, first.ID)

		got, err = s.ListMessages(ctx, true)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Wei", got[0].Name)
		assert.False(t, got[0].CreatedAt.IsZero())
		assert.Equal(t, "Miss you all", got[1].Content)
	})

	t.Run("souvenir stock", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		mug := &resource.MerchandiseItem{Name: "Mug", Category: "Home", Price: 12.5, Description: "Class mug", ImageURL: "https://img/mug.png", InStock: true}
		require.NoError(t, s.CreateSouvenir(ctx, mug))

		updated, err := s.SetSouvenirStock(ctx, string(mug.ID), false)
		require.NoError(t, err)
		assert.False(t, updated.InStock)
		assert.Equal(t, mug.ID, updated.ID)
		assert.InDelta(t, 12.5, updated.Price, 1e-9)

		got, err := s.ListSouvenirs(ctx, true)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.False(t, got[0].InStock)

		_, err = s.SetSouvenirStock(ctx, "missing", true)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.DeleteSouvenir(ctx, string(mug.ID)))
		assert.ErrorIs(t, s.DeleteSouvenir(ctx, string(mug.ID)), ErrNotFound)
	})

	t.Run("orders", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		o := &resource.Order{
			CustomerName:    "Bo",
			CustomerContact: "bo@example.com",
			Items:           []resource.OrderLine{{ID: "s1", Name: "Mug", Price: 20, Quantity: 2}},
			TotalAmount:     40,
			CreatedAt:       at(5),
		}
		require.NoError(t, s.CreateOrder(ctx, o))
		assert.Equal(t, resource.OrderPending, o.Status)
		require.NoError(t, s.CreateOrder(ctx, &resource.Order{CustomerName: "Cy", CustomerContact: "cy", TotalAmount: 0, CreatedAt: at(9)}))

		got, err := s.ListOrders(ctx, true)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Cy", got[0].CustomerName)
		assert.NotNil(t, got[0].Items)
		require.Len(t, got[1].Items, 1)
		assert.Equal(t, 2, got[1].Items[0].Quantity)

		updated, err := s.SetOrderStatus(ctx, string(o.ID), resource.OrderCompleted)
		require.NoError(t, err)
		assert.Equal(t, resource.OrderCompleted, updated.Status)
		assert.Equal(t, "Bo", updated.CustomerName)

		_, err = s.SetOrderStatus(ctx, string(o.ID), "shipped")
		assert.Error(t, err)
		_, err = s.SetOrderStatus(ctx, "missing", resource.OrderCancelled)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.DeleteOrder(ctx, string(o.ID)))
		assert.ErrorIs(t, s.DeleteOrder(ctx, string(o.ID)), ErrNotFound)
	})

	t.Run("settings", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetSetting(ctx, SettingAdminPassword)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.SetSetting(ctx, SettingAdminPassword, "hash-1"))
		require.NoError(t, s.SetSetting(ctx, SettingAdminPassword, "hash-2"))

		v, err := s.GetSetting(ctx, SettingAdminPassword)
		require.NoError(t, err)
		assert.Equal(t, "hash-2", v)
	})

	t.Run("empty lists are non-nil", func(t *testing.T) {
		s := newStore(t)
		got, err := s.ListSouvenirs(context.Background(), true)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
