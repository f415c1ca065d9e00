package analysis

import "errors"

// ErrShape marks a model reply that is not valid JSON or does not match the schema.
var ErrShape = errors.New("model reply does not match schema")

// ErrNotFound is returned by repositories when no record matches.
var ErrNotFound = errors.New("analysis not found")
