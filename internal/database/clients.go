package database

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

const clientsTable = "clients"

// clientColumns is the select list shared by every client query.
var clientColumns = []string{"id", "name", "national_id", "email", "phone"}

// Client is a subscriber of the ISP.
type Client struct {
	ID         int64
	Name       string
	NationalID string
	Email      string
	Phone      string
}

type clientRow struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	NationalID string `db:"national_id"`
	Email      string `db:"email"`
	Phone      string `db:"phone"`
}

func (r *clientRow) toModel() (*Client, error) {
	return &Client{
		ID:         r.ID,
		Name:       r.Name,
		NationalID: r.NationalID,
		Email:      r.Email,
		Phone:      r.Phone,
	}, nil
}

// ClientRepository persists clients.
type ClientRepository struct {
	m *Manager
}

var _ Repository[Client] = (*ClientRepository)(nil)

func NewClientRepository(m *Manager) *ClientRepository {
	return &ClientRepository{m: m}
}

// Create inserts a new client and assigns its id.
func (r *ClientRepository) Create(ctx context.Context, c *Client) (*Client, error) {
	id, err := insert(ctx, r.m, builder.Insert(clientsTable).
		Columns("name", "national_id", "email", "phone").
		Values(c.Name, c.NationalID, c.Email, c.Phone))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	c.ID = id
	return c, nil
}

// GetByID returns the client with the given id, or nil if there is none.
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*Client, error) {
	c, err := getOne(ctx, r.m, r.selectClients().Where(squirrel.Eq{"id": id}), (*clientRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*Client, error) {
	clients, err := selectAll(ctx, r.m, r.selectClients(), (*clientRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// Update overwrites every column of the client row matching c.ID.
func (r *ClientRepository) Update(ctx context.Context, c *Client) (*Client, error) {
	if c.ID == 0 {
		return nil, missingID("a client")
	}

	err := exec(ctx, r.m, builder.Update(clientsTable).
		Set("name", c.Name).
		Set("national_id", c.NationalID).
		Set("email", c.Email).
		Set("phone", c.Phone).
		Where(squirrel.Eq{"id": c.ID}))
	if err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return c, nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	if err := exec(ctx, r.m, builder.Delete(clientsTable).Where(squirrel.Eq{"id": id})); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

func (r *ClientRepository) selectClients() squirrel.SelectBuilder {
	return builder.Select(clientColumns...).From(clientsTable).OrderBy("id")
}
