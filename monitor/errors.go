package monitor

import "errors"

// ErrHookCreationFailed is returned by Start when the facility refuses to
// create or enable the tap, usually because input monitoring permission has
// not been granted. Start may be retried once the user has acted.
var ErrHookCreationFailed = errors.New("failed to create event tap")

// ErrMisuse is wrapped by the panics raised on contract violations such as
// registering a handler after Start.
var ErrMisuse = errors.New("event monitor misuse")
