package entity

// CatalogEntry is one service offered in the catalog
type CatalogEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Route       string `json:"route,omitempty"`
}

// HasForm returns true when the entry can be requested through a form
func (c CatalogEntry) HasForm() bool {
	return c.Available && c.Route != ""
}

// Catalog returns the service catalog in display order
func Catalog() []CatalogEntry {
	return []CatalogEntry{
		{ID: "desktop-phone", Title: "Desktop Phone", Description: "Request a new or replacement desk phone", Available: true, Route: "/request/phone"},
		{ID: "laptop", Title: "Laptop", Description: "Request a laptop for mobile work", Available: true},
		{ID: "network-access", Title: "Network Access", Description: "Request access to a network segment", Available: true},
		{ID: "security-clearance", Title: "Security Clearance", Description: "Request an elevated clearance level", Available: false},
		{ID: "storage", Title: "Storage", Description: "Request additional storage capacity", Available: true},
		{ID: "monitor", Title: "Monitor", Description: "Request an additional display", Available: true},
	}
}
