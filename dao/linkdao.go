package dao

// LinkDao is the storage contract for the link registry. Implementations
// report duplicate codes with ErrDuplicateCode and unknown codes with
// ErrNotFound; any other failure is a backend error wrapped with context.
type LinkDao interface {
	IsLikelyOk() bool
	// Insert persists a brand new link with zero clicks and returns the
	// stored record. Uniqueness is enforced by the store itself, never by
	// a lookup beforehand.
	Insert(code string, targetURL string) (Link, error)
	// Redirect bumps total_clicks and last_clicked in one atomic store
	// operation and returns the target url.
	Redirect(code string) (string, error)
	Get(code string) (Link, error)
	// List returns every link newest first. Empty registries yield an
	// empty, non-nil slice.
	List() ([]Link, error)
	Delete(code string) error
	Cleanup()
}
