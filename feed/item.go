// Package feed holds the in-memory feed item state and the optimistic
// mutation engine that keeps interactive toggles instant while the backend
// stays authoritative.
package feed

// Family is the kind-family of an interactive toggle. At most one mutation
// per (item, family) is in flight at a time.
type Family string

const (
	FamilyLike Family = "like"
	FamilySave Family = "save"
)

// Item is the viewer-facing state of one post. LikeCount is a display cache:
// it may transiently diverge from the backend's authoritative count and is
// overwritten on reconciliation. The viewer's own booleans are the only
// values the optimistic path trusts.
type Item struct {
	ID            string
	LikedByViewer bool
	LikeCount     int
	SavedByViewer bool
}

func (i Item) flag(family Family) bool {
	if family == FamilySave {
		return i.SavedByViewer
	}
	return i.LikedByViewer
}
