package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresFactory stores each namespace document as one JSONB row in datastore_namespaces.
// The table is created by the migrations in internal/db/migrations.
type PostgresFactory struct {
	db *sql.DB
}

// NewPostgresFactory returns a PostgresFactory over db (opened with the pgx driver, see internal/db).
func NewPostgresFactory(db *sql.DB) *PostgresFactory {
	return &PostgresFactory{db: db}
}

// Create inserts the seed document when the namespace row is absent. It satisfies Factory.
func (f *PostgresFactory) Create(ctx context.Context, name string, seed any) (Store, error) {
	doc, err := seedDocument(seed)
	if err != nil {
		return nil, err
	}
	data, err := doc.encode()
	if err != nil {
		return nil, err
	}
	_, err = f.db.ExecContext(ctx,
		`INSERT INTO datastore_namespaces (name, document) VALUES ($1, $2::jsonb) ON CONFLICT (name) DO NOTHING`,
		name, string(data))
	if err != nil {
		return nil, fmt.Errorf("datastore: create namespace %s: %w", name, err)
	}
	return &PostgresStore{db: f.db, name: name}, nil
}

// PostgresStore is one namespace document held in Postgres.
type PostgresStore struct {
	db   *sql.DB
	name string
}

// Get decodes the value at key into out.
func (s *PostgresStore) Get(ctx context.Context, key []string, out any) (bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM datastore_namespaces WHERE name = $1`, s.name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNamespaceNotFound
		}
		return false, fmt.Errorf("datastore: get %s: %w", s.name, err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return false, err
	}
	return doc.lookup(key, out)
}

// Set stores value at key. The row is locked with FOR UPDATE for the read-modify-write.
func (s *PostgresStore) Set(ctx context.Context, key []string, value any) error {
	v, err := normalize(value)
	if err != nil {
		return err
	}
	return s.update(ctx, func(doc document) error {
		return doc.set(key, v)
	})
}

// Delete removes the value at key.
func (s *PostgresStore) Delete(ctx context.Context, key []string) error {
	return s.update(ctx, func(doc document) error {
		doc.remove(key)
		return nil
	})
}

func (s *PostgresStore) update(ctx context.Context, mutate func(document) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("datastore: begin %s: %w", s.name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var data []byte
	err = tx.QueryRowContext(ctx,
		`SELECT document FROM datastore_namespaces WHERE name = $1 FOR UPDATE`, s.name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNamespaceNotFound
		}
		return fmt.Errorf("datastore: lock %s: %w", s.name, err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return err
	}
	if err = mutate(doc); err != nil {
		return err
	}
	encoded, err := doc.encode()
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE datastore_namespaces SET document = $2::jsonb, updated_at = now() WHERE name = $1`,
		s.name, string(encoded)); err != nil {
		return fmt.Errorf("datastore: update %s: %w", s.name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("datastore: commit %s: %w", s.name, err)
	}
	return nil
}
