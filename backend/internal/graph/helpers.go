package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	return getStringOr(record, key, "")
}

// getStringOr returns fallback when the key is absent, null or blank
func getStringOr(record *neo4j.Record, key, fallback string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return fallback
	}
	if str, ok := val.(string); ok && str != "" {
		return str
	}
	return fallback
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	switch i := val.(type) {
	case int64:
		return int(i)
	case int:
		return i
	case float64:
		// Years loaded from spreadsheets sometimes arrive as 2005.0
		return int(i)
	}
	return 0
}
