package repository

import (
	"encoding/json"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"pdf-layout-annotator/internal/domain"
)

// Table names of the Supabase schema.
const (
	documentsTable       = "documents"
	annotationSetsTable  = "annotation_sets"
	taskLabelsTable      = "task_labels"
	activeSelectionTable = "active_selection"
)

func db(c domain.SupabaseClient) (*supabase.Client, error) {
	client := c.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}
	return client, nil
}

func decodeRows(data []byte) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return rows, nil
}

func stringField(row map[string]interface{}, key string) string {
	s, _ := row[key].(string)
	return s
}

func boolField(row map[string]interface{}, key string) bool {
	b, _ := row[key].(bool)
	return b
}

// jsonField re-encodes a jsonb column into out.
func jsonField(row map[string]interface{}, key string, out interface{}) error {
	v, ok := row[key]
	if !ok || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func documentFromRow(row map[string]interface{}) domain.DocumentStatus {
	return domain.DocumentStatus{
		ID:       stringField(row, "id"),
		Name:     stringField(row, "name"),
		Finished: boolField(row, "finished"),
		Junk:     boolField(row, "junk"),
	}
}

// distinct returns the values of key in first-seen order.
func distinct(rows []map[string]interface{}, key string) []string {
	seen := make(map[string]bool, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		v := stringField(row, key)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
