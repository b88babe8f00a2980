package okrtools

import (
	"errors"

	"github.com/jaakkos/okrboard/internal/okr"
)

var errNoData = errors.New("no data for this selection")

// toolError rewrites errors whose message is meant for end users.
func toolError(err error) error {
	var empty *okr.EmptyDataError
	if errors.As(err, &empty) {
		return errNoData
	}
	return err
}
