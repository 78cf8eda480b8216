// Package search is the dashboard's client-only lookup over a fixed catalog
// of pages, features and help topics, plus the most-recently-used list.
package search

// EntryType classifies a catalog entry.
type EntryType string

const (
	TypePage    EntryType = "page"
	TypeFeature EntryType = "feature"
	TypeHelp    EntryType = "help"
)

// Entry is one searchable item of the catalog.
type Entry struct {
	Type        EntryType `json:"type"`
	Title       string    `json:"title"`
	Path        string    `json:"path"`
	Description string    `json:"description"`
}

// RecentEntry is what gets remembered when a result is selected.
type RecentEntry struct {
	Title string    `json:"title"`
	Path  string    `json:"path"`
	Type  EntryType `json:"type"`
}

func (e Entry) Recent() RecentEntry {
	return RecentEntry{Title: e.Title, Path: e.Path, Type: e.Type}
}

// DefaultCatalog returns the dashboard's built-in catalog.
func DefaultCatalog() []Entry {
	return []Entry{
		{Type: TypePage, Title: "Dashboard", Path: "/dashboard", Description: "Overview and analytics"},
		{Type: TypePage, Title: "Labs Management", Path: "/labs", Description: "Lab profiles and performance"},
		{Type: TypePage, Title: "Researchers", Path: "/researchers", Description: "Researcher profiles and workload"},
		{Type: TypePage, Title: "Analytics", Path: "/analytics", Description: "Advanced analytics and insights"},
		{Type: TypePage, Title: "Collaboration", Path: "/collaboration", Description: "AI-powered collaboration opportunities"},
		{Type: TypePage, Title: "Profile", Path: "/profile", Description: "IDEAL Labs profile settings"},

		{Type: TypeFeature, Title: "AI Collaboration Matching", Path: "/collaboration", Description: "Find collaboration opportunities using AI"},
		{Type: TypeFeature, Title: "Document Ingestion", Path: "/labs", Description: "Upload and extract lab data from documents"},
		{Type: TypeFeature, Title: "Workload Analytics", Path: "/analytics", Description: "View lab workload distribution"},
		{Type: TypeFeature, Title: "Researcher Growth Trends", Path: "/analytics", Description: "Year-over-year comparison"},
		{Type: TypeFeature, Title: "Domain Distribution", Path: "/dashboard", Description: "Labs by research domain"},

		{Type: TypeHelp, Title: "How to add a new lab", Path: "/labs", Description: "Manual or document upload"},
		{Type: TypeHelp, Title: "Understanding collaboration scores", Path: "/collaboration", Description: "Score calculation methodology"},
		{Type: TypeHelp, Title: "Exporting analytics data", Path: "/analytics", Description: "Download reports and charts"},
	}
}
