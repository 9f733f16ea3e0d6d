package generate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizeGuests turns formData.guests into a list of trimmed, non-blank
// names. It accepts an array, an object with a name, a plain string or a
// string holding JSON.
func NormalizeGuests(raw interface{}) []string {
	var items []interface{}

	switch v := raw.(type) {
	case nil:
		return nil
	case []interface{}:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case string:
		var parsed interface{}
		if err := json.Unmarshal([]byte(v), &parsed); err == nil {
			if arr, ok := parsed.([]interface{}); ok {
				items = arr
			} else {
				items = []interface{}{parsed}
			}
		} else {
			items = []interface{}{v}
		}
	default:
		items = []interface{}{v}
	}

	guests := make([]string, 0, len(items))
	for _, item := range items {
		if name := guestName(item); name != "" {
			guests = append(guests, name)
		}
	}
	return guests
}

func guestName(item interface{}) string {
	switch v := item.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		if name, ok := v["name"]; ok && name != nil && name != "" {
			return guestName(name)
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
