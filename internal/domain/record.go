package domain

import "strconv"

// Record is one persisted entity row keyed by column name. Values use the
// same Go types as validated payloads: string, int64, float64, bool or nil.
type Record map[string]any

// ID returns the record's identifier rendered as a string.
func (r Record) ID(key string) string {
	switch v := r[key].(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	}
	return ""
}

// Option is a {value, label} pair used to populate select inputs.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ListOpts holds the parameters for listing records.
type ListOpts struct {
	Limit int    `json:"limit"`
	After string `json:"after"`
}

// RecordPage is a paginated list of records.
type RecordPage struct {
	Results []Record
	After   string
	HasMore bool
}

// ActionEntry is one row of the CRUD action log.
type ActionEntry struct {
	ID            int64  `json:"id"`
	Entity        string `json:"entity"`
	Action        string `json:"action"`
	Status        string `json:"status"`
	RecordID      string `json:"recordId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	CreatedAt     string `json:"createdAt"`
}
