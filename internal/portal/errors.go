package portal

import "fmt"

// ErrorKind classifies a portal request failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindServerError
	KindOffline
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindServerError:
		return "server error"
	case KindOffline:
		return "offline"
	case KindTimeout:
		return "timeout"
	}
	return "unknown"
}

// Error is the typed failure returned by portal lookups. StatusCode is zero
// for transport-level failures.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Name       string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("portal: %s: %s (status %d)", e.Name, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("portal: %s: %s: %v", e.Name, e.Kind, e.Err)
	}
	return fmt.Sprintf("portal: %s: %s", e.Name, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}
