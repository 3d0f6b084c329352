package config

import (
	"encoding/json"
	"strings"
)

// ColumnMapping names the fields of the Notion database the integration reads and writes.
type ColumnMapping struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Tags        string `json:"tags"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// DefaultMapping is used whenever NOTION_COLUMN_MAP is absent or unreadable.
var DefaultMapping = ColumnMapping{
	Title:       "名前",
	Date:        "Date",
	Status:      "Status",
	Tags:        "Tags",
	Description: "Description",
	URL:         "URL",
}

// mappingOverride keeps null and absent keys apart from empty strings.
type mappingOverride struct {
	Title       *string `json:"title"`
	Date        *string `json:"date"`
	Status      *string `json:"status"`
	Tags        *string `json:"tags"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
}

// ResolveMapping overlays the recognized keys of raw onto DefaultMapping.
// Empty or malformed input yields DefaultMapping with usedDefault set.
// Recognized keys win even when empty; unknown keys are ignored.
func ResolveMapping(raw string) (m ColumnMapping, usedDefault bool) {
	m = DefaultMapping
	if strings.TrimSpace(raw) == "" {
		return m, true
	}
	var o mappingOverride
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return DefaultMapping, true
	}
	overlay(&m.Title, o.Title)
	overlay(&m.Date, o.Date)
	overlay(&m.Status, o.Status)
	overlay(&m.Tags, o.Tags)
	overlay(&m.Description, o.Description)
	overlay(&m.URL, o.URL)
	return m, false
}

func overlay(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
