package models

// SettingInfo describes one platform setting for the admin API: its stored
// key, current and default value, value type and grouping.
type SettingInfo struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Value        any    `json:"value"`
	Type         string `json:"type"` // "int", "float", "bool", "string"
	DefaultValue any    `json:"default_value"`
	Description  string `json:"description"`
	Category     string `json:"category"`
}

// CategorizedSettings is a list of settings grouped by category
type CategorizedSettings struct {
	CategoryName string        `json:"category_name"`
	Settings     []SettingInfo `json:"settings"`
}
