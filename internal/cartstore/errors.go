package cartstore

import "github.com/pkg/errors"

// ErrAuthenticationRequired is returned by mutations attempted with no
// signed-in user. Nothing is written and the local state is untouched.
var ErrAuthenticationRequired = errors.New("authentication required")

// RemoteError wraps a failure of the remote cart store.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string { return "cart " + e.Op + ": " + e.Err.Error() }

func (e *RemoteError) Unwrap() error { return e.Err }
