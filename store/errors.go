package store

import "errors"

// ErrIndex is returned when a position does not address an item.
var ErrIndex = errors.New("index out of range")

// ErrNotArray is returned when a file's top level is not a JSON array.
var ErrNotArray = errors.New("top level is not an array")
