// internal/audit/message.go
package audit

import "encoding/json"

// Added is the change message stored for a newly created object.
func Added() json.RawMessage {
	return json.RawMessage(`[{"added": {}}]`)
}

// Changed lists the labels of the fields that were modified. An update that
// touched nothing is stored as "No fields changed." by readers, so an empty
// list is kept as an empty array.
func Changed(fields []string) json.RawMessage {
	if len(fields) == 0 {
		return json.RawMessage("[]")
	}
	b, err := json.Marshal([]map[string]map[string][]string{
		{"changed": {"fields": fields}},
	})
	if err != nil {
		return json.RawMessage("[]")
	}
	return b
}

// Deleted is the change message stored for a removed object.
func Deleted() json.RawMessage {
	return json.RawMessage("[]")
}
