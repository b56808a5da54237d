package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-service/internal/models"
	"procurement-service/internal/store"
)

func TestContactCRUD(t *testing.T) {
	fs := newFakeStore()
	svc := NewContactService(fs)

	contact := &models.Contact{City: "Moscow", Street: "Arbat", House: "12", Phone: "+7900"}
	require.NoError(t, svc.Create(context.Background(), 1, contact))
	assert.NotZero(t, contact.ID)
	assert.Equal(t, int64(1), contact.UserID)

	list, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := svc.Get(context.Background(), 1, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Arbat", got.Street)

	got.Street = "Tverskaya"
	require.NoError(t, svc.Update(context.Background(), 1, got))
	updated, err := svc.Get(context.Background(), 1, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tverskaya", updated.Street)

	require.NoError(t, svc.Delete(context.Background(), 1, contact.ID))
	_, err = svc.Get(context.Background(), 1, contact.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestContactOwnershipHidesForeignContacts(t *testing.T) {
	fs := newFakeStore()
	svc := NewContactService(fs)

	contact := &models.Contact{City: "Moscow", Street: "Arbat", Phone: "+7900"}
	require.NoError(t, svc.Create(context.Background(), 1, contact))

	// Another user sees not-found, not forbidden.
	_, err := svc.Get(context.Background(), 2, contact.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.Update(context.Background(), 2, contact)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.Delete(context.Background(), 2, contact.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Still there for the owner.
	_, err = svc.Get(context.Background(), 1, contact.ID)
	assert.NoError(t, err)
}
