// Package supabase connects the service to a Supabase project: lifecycle
// events are inserted through the REST API and exports go to Storage.
package supabase

import (
	"fmt"
	"strings"

	"github.com/supabase-community/supabase-go"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/config"
)

type Client struct {
	Supabase *supabase.Client
	Config   config.SupabaseConfig
}

func NewClient(cfg config.SupabaseConfig) (*Client, error) {
	client, err := supabase.NewClient(strings.TrimSuffix(cfg.URL, "/"), cfg.PublishableKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}
