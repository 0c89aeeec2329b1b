// File: internal/prop/errors.go
package prop

import (
	"errors"
	"fmt"

	"propspot_backend/internal/common"
	"propspot_backend/internal/docstore"
)

func errorsIsNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}

// mapStoreErr turns store failures into API errors where the caller can act on them.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, ErrNotConnected):
		return common.ErrNotConnected
	case errors.Is(err, docstore.ErrNotFound):
		return common.ErrNotFound
	default:
		return err
	}
}

// DocumentError reports one document a subscription could not decode. The subscription
// itself carries on; any other subscription error ends it.
type DocumentError struct {
	ID  string
	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("decoding prop %s: %v", e.ID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
