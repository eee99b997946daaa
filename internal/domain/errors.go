package domain

import "errors"

// ErrDuplicateRecord signals that the store already holds a record with the
// same identifier or content hash. The batch processor counts it as a
// duplicate, never as a failure.
var ErrDuplicateRecord = errors.New("duplicate record")
