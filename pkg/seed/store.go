package seed

import (
	"context"

	"github.com/supabase-community/supabase-go"
)

// SupabaseStore implements Store over a supabase-go client.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore wraps client.
func NewSupabaseStore(client *supabase.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

// Insert adds row and asks PostgREST to return the representation.
func (s *SupabaseStore) Insert(ctx context.Context, table string, row any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.client.From(table).Insert(row, false, "", "representation", "").Execute()
	return data, err
}

// Update sets values where column equals value.
func (s *SupabaseStore) Update(ctx context.Context, table string, values any, column, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.client.From(table).Update(values, "minimal", "").Eq(column, value).Execute()
	return err
}

// RPC calls a database function.
func (s *SupabaseStore) RPC(ctx context.Context, name string, params any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.client.Rpc(name, "", params), nil
}
