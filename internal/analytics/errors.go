package analytics

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTable signals that winner selection ran against zero rows.
var ErrEmptyTable = errors.New("empty table: no rows to rank")

// MissingColumnsError reports every required column absent from an upload.
// It aborts the run before any aggregation happens.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}
