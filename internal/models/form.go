package models

// Form describes one onboarding form exposed by the remote API.
// Fields stays a raw map to preserve whatever layout properties the
// backend attaches to it.
type Form struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// CachedForm is the subset of Form persisted in the forms cache file.
type CachedForm struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Cached strips a Form down to its cacheable subset.
func (f Form) Cached() CachedForm {
	return CachedForm{
		ID:          f.ID,
		Title:       f.Title,
		Slug:        f.Slug,
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// FormResponse is the wrapper the remote API returns for a single form
// lookup by slug.
type FormResponse struct {
	Status string `json:"status"`
	Data   struct {
		Form Form `json:"form"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}
