package fixtures

import "errors"

// ErrInvalidParams is returned for generator parameters that cannot yield a
// valid set.
var ErrInvalidParams = errors.New("invalid generator parameters")
