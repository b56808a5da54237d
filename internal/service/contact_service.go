package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"procurement-service/internal/models"
	"procurement-service/internal/store"
	"procurement-service/internal/util"
)

// ContactStore is the persistence surface the contact service needs.
type ContactStore interface {
	CreateContact(ctx context.Context, contact *models.Contact) error
	GetContactByID(ctx context.Context, id int64) (*models.Contact, error)
	GetContactsByUserID(ctx context.Context, userID int64) ([]models.Contact, error)
	UpdateContact(ctx context.Context, contact *models.Contact) error
	DeleteContact(ctx context.Context, id int64) error
}

type ContactService struct {
	store  ContactStore
	logger *zap.Logger
}

// NewContactService creates a new contact service
func NewContactService(s ContactStore) *ContactService {
	return &ContactService{store: s, logger: util.GetLogger()}
}

// Create stores a new delivery contact for the user.
func (s *ContactService) Create(ctx context.Context, userID int64, contact *models.Contact) error {
	contact.UserID = userID
	if err := s.store.CreateContact(ctx, contact); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	s.logger.Info("contact created",
		zap.Int64("user_id", userID),
		zap.Int64("contact_id", contact.ID))
	return nil
}

// List returns the user's contacts.
func (s *ContactService) List(ctx context.Context, userID int64) ([]models.Contact, error) {
	return s.store.GetContactsByUserID(ctx, userID)
}

// getOwned loads a contact and hides contacts of other users behind
// ErrNotFound.
func (s *ContactService) getOwned(ctx context.Context, userID, contactID int64) (*models.Contact, error) {
	contact, err := s.store.GetContactByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if contact.UserID != userID {
		return nil, store.ErrNotFound
	}
	return contact, nil
}

// Get returns one of the user's contacts by ID.
func (s *ContactService) Get(ctx context.Context, userID, contactID int64) (*models.Contact, error) {
	return s.getOwned(ctx, userID, contactID)
}

// Update overwrites an owned contact's fields.
func (s *ContactService) Update(ctx context.Context, userID int64, contact *models.Contact) error {
	if _, err := s.getOwned(ctx, userID, contact.ID); err != nil {
		return err
	}
	if err := s.store.UpdateContact(ctx, contact); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

// Delete removes an owned contact.
func (s *ContactService) Delete(ctx context.Context, userID, contactID int64) error {
	if _, err := s.getOwned(ctx, userID, contactID); err != nil {
		return err
	}
	if err := s.store.DeleteContact(ctx, contactID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	s.logger.Info("contact deleted",
		zap.Int64("user_id", userID),
		zap.Int64("contact_id", contactID))
	return nil
}
