// Package store implements the catalog and engagement core: identity
// resolution, the content catalog, the social graph, the engagement ledger
// and discovery queries. Every component takes an explicit *gorm.DB handle;
// there is no package-level database state.
package store

import (
	"strings"

	"github.com/pkg/errors"
)

// Error kinds surfaced by the store. Callers classify with errors.Is; the
// HTTP layer maps each kind to a status code. Wrap with errors.Wrap to add
// context without losing the kind.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
)

// isUniqueViolation reports whether the database rejected a write on a
// unique index. The postgres driver surfaces these untyped, so match on the
// stable constraint-violation message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}
