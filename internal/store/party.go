// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lexdesk/internal/models"
)

// ClientStore reads and writes clients.
type ClientStore struct {
	db *sql.DB
}

func NewClientStore(db *sql.DB) *ClientStore {
	return &ClientStore{db: db}
}

const clientColumns = `id, name, document, email, phone, address, city, state, zip_code, created_at`

func scanClient(row rowScanner) (*models.Client, error) {
	c := &models.Client{}
	err := row.Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone, &c.Address, &c.City, &c.State, &c.ZipCode, &c.CreatedAt)
	return c, err
}

func (s *ClientStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find client by id: %w", err)
	}
	return c, nil
}

func (s *ClientStore) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	created, err := scanClient(s.db.QueryRowContext(ctx, `
		INSERT INTO clients (name, document, email, phone, address, city, state, zip_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+clientColumns,
		c.Name, c.Document, c.Email, c.Phone, c.Address, c.City, c.State, c.ZipCode,
	))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return created, nil
}

func (s *ClientStore) List(ctx context.Context) ([]models.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// ProcessStore reads and writes court processes.
type ProcessStore struct {
	db *sql.DB
}

func NewProcessStore(db *sql.DB) *ProcessStore {
	return &ProcessStore{db: db}
}

const processColumns = `id, client_id, number, court, subject, opposing_party, judge, created_at`

func scanProcess(row rowScanner) (*models.Process, error) {
	p := &models.Process{}
	err := row.Scan(&p.ID, &p.ClientID, &p.Number, &p.Court, &p.Subject, &p.OpposingParty, &p.Judge, &p.CreatedAt)
	return p, err
}

func (s *ProcessStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Process, error) {
	p, err := scanProcess(s.db.QueryRowContext(ctx, `SELECT `+processColumns+` FROM processes WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find process by id: %w", err)
	}
	return p, nil
}

func (s *ProcessStore) Create(ctx context.Context, p *models.Process) (*models.Process, error) {
	created, err := scanProcess(s.db.QueryRowContext(ctx, `
		INSERT INTO processes (client_id, number, court, subject, opposing_party, judge)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+processColumns,
		p.ClientID, p.Number, p.Court, p.Subject, p.OpposingParty, p.Judge,
	))
	if err != nil {
		return nil, fmt.Errorf("create process: %w", err)
	}
	return created, nil
}

func (s *ProcessStore) List(ctx context.Context) ([]models.Process, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+processColumns+` FROM processes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close()

	processes := []models.Process{}
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("scan process: %w", err)
		}
		processes = append(processes, *p)
	}
	return processes, rows.Err()
}
