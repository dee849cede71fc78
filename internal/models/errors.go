package models

import "errors"

// ErrNotFound marks lookups of ids that do not exist (never created or deleted).
var ErrNotFound = errors.New("not found")
