package repository

import (
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// extractQueryResults extracts the rows array from a SurrealDB response
func extractQueryResults(result []interface{}) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0)
	for _, r := range result {
		resp, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		data, ok := resp["result"]
		if !ok {
			data = r
		}
		arr, ok := data.([]interface{})
		if !ok {
			if m, ok := data.(map[string]interface{}); ok {
				rows = append(rows, m)
			}
			continue
		}
		for _, item := range arr {
			if m, ok := item.(map[string]interface{}); ok {
				rows = append(rows, m)
			}
		}
	}
	return rows
}

// firstRow returns the first row of a response, or nil
func firstRow(result []interface{}) map[string]interface{} {
	rows := extractQueryResults(result)
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// convertSurrealID normalizes SurrealDB record ids to their string key
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%v", v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%v", v.ID)
		}
	case map[string]interface{}:
		if idVal, ok := v["id"]; ok {
			return convertSurrealID(idVal)
		}
	}
	return ""
}

// getString extracts a string value from a row
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getInt extracts an int value from a row
func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

// getTime extracts a time value from a row
func getTime(m map[string]interface{}, key string) time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	case models.CustomDateTime:
		return v.Time
	case *models.CustomDateTime:
		if v != nil {
			return v.Time
		}
	}
	return time.Time{}
}

// getTimePtr extracts an optional time value from a row
func getTimePtr(m map[string]interface{}, key string) *time.Time {
	if _, ok := m[key]; !ok || m[key] == nil {
		return nil
	}
	t := getTime(m, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

// getCount extracts a count aggregate from a response
func getCount(result []interface{}) int {
	row := firstRow(result)
	if row == nil {
		return 0
	}
	return getInt(row, "count")
}

// getDataMap extracts a nested object value from a row
func getDataMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
