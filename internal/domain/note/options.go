package note

// DefaultPageLimit is the page size used when a listing does not ask for one.
const DefaultPageLimit = 50

// Page selects a window of a listing.
type Page struct {
	Limit  int
	Offset int
}

// Normalize fills defaults and clamps negative values.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// SearchOptions controls full-text search over transcripts.
type SearchOptions struct {
	IncludeProcessed bool
	Limit            int
}
