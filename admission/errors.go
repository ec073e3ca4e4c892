package admission

import "errors"

// ErrInvalidOption indicates a named option holds a value that cannot be
// read as a number.
var ErrInvalidOption = errors.New("admission: invalid option value")
