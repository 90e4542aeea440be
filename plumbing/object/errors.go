package object

import "errors"

// ErrUnsupportedObjectType is returned when a pack or loose reader is asked
// to decode a tag object directly. The system never dereferences tag
// objects on its own; annotated-tag peeling happens at the ref layer,
// using the peeled hash packed-refs already records.
var ErrUnsupportedObjectType = errors.New("unsupported object type")
