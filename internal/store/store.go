package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"procurement-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)

const uniqueViolation = "23505"

type Store struct {
	db *sqlx.DB
}

// NewStore connects to the database and ensures the schema exists.
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.EnsureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// EnsureSchema creates all tables and indexes if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	company       TEXT NOT NULL DEFAULT '',
	position      TEXT NOT NULL DEFAULT '',
	type          TEXT NOT NULL DEFAULT 'buyer' CHECK (type IN ('shop', 'buyer')),
	active        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS confirm_tokens (
	token      TEXT PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS contacts (
	id        BIGSERIAL PRIMARY KEY,
	user_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	city      TEXT NOT NULL,
	street    TEXT NOT NULL,
	house     TEXT NOT NULL DEFAULT '',
	structure TEXT NOT NULL DEFAULT '',
	building  TEXT NOT NULL DEFAULT '',
	floor     TEXT NOT NULL DEFAULT '',
	apartment TEXT NOT NULL DEFAULT '',
	phone     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS shops (
	id      BIGSERIAL PRIMARY KEY,
	name    TEXT NOT NULL UNIQUE,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	state   BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS categories (
	id   BIGINT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS shop_categories (
	shop_id     BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
	category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	PRIMARY KEY (shop_id, category_id)
);

CREATE TABLE IF NOT EXISTS products (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	category_id BIGINT NOT NULL REFERENCES categories(id),
	UNIQUE (name, category_id)
);

CREATE TABLE IF NOT EXISTS product_infos (
	id          BIGSERIAL PRIMARY KEY,
	product_id  BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	shop_id     BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
	external_id BIGINT NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	price       BIGINT NOT NULL,
	price_rrc   BIGINT NOT NULL,
	quantity    INTEGER NOT NULL,
	UNIQUE (shop_id, external_id)
);

CREATE TABLE IF NOT EXISTS parameters (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS product_parameters (
	product_info_id BIGINT NOT NULL REFERENCES product_infos(id) ON DELETE CASCADE,
	parameter_id    BIGINT NOT NULL REFERENCES parameters(id) ON DELETE CASCADE,
	value           TEXT NOT NULL,
	PRIMARY KEY (product_info_id, parameter_id)
);

CREATE TABLE IF NOT EXISTS orders (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	status     TEXT NOT NULL DEFAULT 'basket',
	contact_id BIGINT REFERENCES contacts(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS orders_one_basket_per_user
	ON orders (user_id) WHERE status = 'basket';

CREATE TABLE IF NOT EXISTS order_items (
	id              BIGSERIAL PRIMARY KEY,
	order_id        BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_info_id BIGINT NOT NULL REFERENCES product_infos(id) ON DELETE CASCADE,
	quantity        INTEGER NOT NULL CHECK (quantity > 0),
	UNIQUE (order_id, product_info_id)
);
`

// CreateUser inserts a new user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, company, position, type, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, user, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Company, user.Position, user.Type, user.Active)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser persists profile fields of an existing user
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $1, password_hash = $2, first_name = $3, last_name = $4,
		    company = $5, position = $6
		WHERE id = $7`

	_, err := s.db.ExecContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Company, user.Position, user.ID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

// ActivateUser marks a user account as confirmed
func (s *Store) ActivateUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET active = TRUE WHERE id = $1", userID)
	return err
}

// CreateConfirmToken stores an email confirmation token
func (s *Store) CreateConfirmToken(ctx context.Context, token *models.ConfirmToken) error {
	return s.db.GetContext(ctx, &token.CreatedAt,
		"INSERT INTO confirm_tokens (token, user_id) VALUES ($1, $2) RETURNING created_at",
		token.Token, token.UserID)
}

// GetConfirmToken retrieves a confirmation token matching both the token
// string and the owning user's email
func (s *Store) GetConfirmToken(ctx context.Context, email, token string) (*models.ConfirmToken, error) {
	var ct models.ConfirmToken
	err := s.db.GetContext(ctx, &ct, `
		SELECT ct.token, ct.user_id, ct.created_at
		FROM confirm_tokens ct
		JOIN users u ON u.id = ct.user_id
		WHERE u.email = $1 AND ct.token = $2`, email, token)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// DeleteConfirmToken removes a used confirmation token
func (s *Store) DeleteConfirmToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM confirm_tokens WHERE token = $1", token)
	return err
}

// CreateContact inserts a delivery contact
func (s *Store) CreateContact(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO contacts (user_id, city, street, house, structure, building, floor, apartment, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	return s.db.GetContext(ctx, &contact.ID, query,
		contact.UserID, contact.City, contact.Street, contact.House,
		contact.Structure, contact.Building, contact.Floor, contact.Apartment, contact.Phone)
}

// GetContactByID retrieves a contact by ID
func (s *Store) GetContactByID(ctx context.Context, id int64) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.GetContext(ctx, &contact, "SELECT * FROM contacts WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetContactsByUserID retrieves all contacts owned by a user
func (s *Store) GetContactsByUserID(ctx context.Context, userID int64) ([]models.Contact, error) {
	contacts := []models.Contact{}
	err := s.db.SelectContext(ctx, &contacts,
		"SELECT * FROM contacts WHERE user_id = $1 ORDER BY id", userID)
	return contacts, err
}

// UpdateContact persists an existing contact
func (s *Store) UpdateContact(ctx context.Context, contact *models.Contact) error {
	query := `
		UPDATE contacts
		SET city = $1, street = $2, house = $3, structure = $4, building = $5,
		    floor = $6, apartment = $7, phone = $8
		WHERE id = $9`

	res, err := s.db.ExecContext(ctx, query,
		contact.City, contact.Street, contact.House, contact.Structure,
		contact.Building, contact.Floor, contact.Apartment, contact.Phone, contact.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContact removes a contact
func (s *Store) DeleteContact(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
