package domain

import "github.com/supabase-community/supabase-go"

// SupabaseClient gives repositories access to an initialized Supabase client.
type SupabaseClient interface {
	Initialize() error
	DB() *supabase.Client
}
