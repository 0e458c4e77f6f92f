package sqlstore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"p2plend/internal/domain/errs"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

// notFound keeps gorm.ErrRecordNotFound in the chain while tagging it with
// the domain kind.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s: %w", errs.ErrNotFound, what, id, err)
	}
	return err
}
