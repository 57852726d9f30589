package session

import (
	"errors"
	"fmt"
)

// ErrNamespaceNotResolved is returned when statistics or export labeling is
// requested before the namespace index has been built.
var ErrNamespaceNotResolved = errors.New("namespace index not built")

// ConnectivityError wraps a failed remote call. It is fatal for the run:
// discovery and namespace resolution never retry, a broken session must
// abort rather than silently truncate the inventory.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is (or wraps) a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
