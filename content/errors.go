package content

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownResource is returned by BuildURL for resources other than posts, pages and tags.
	ErrUnknownResource = errors.New("content: unknown resource")
	// ErrInvalidParam is returned by BuildURL when a parameter value is not a scalar.
	ErrInvalidParam = errors.New("content: invalid query parameter")
	// ErrEmptySlug is returned without issuing a request when a slug argument is empty.
	ErrEmptySlug = errors.New("content: empty slug")
)

// Kind classifies a failed fetch.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindHTTPStatus
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// FetchError describes a request that was recovered to its fallback result.
type FetchError struct {
	Op       string
	Resource Resource
	Kind     Kind
	Status   int // set for KindHTTPStatus
	Err      error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("content: %s %s: unexpected status %d", e.Op, e.Resource, e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("content: %s %s: %s: %v", e.Op, e.Resource, e.Kind, e.Err)
		}
		return fmt.Sprintf("content: %s %s: %s", e.Op, e.Resource, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a *FetchError in err's chain, or 0.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// ConfigError is returned when the client cannot be built from its configuration.
// It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("content: invalid configuration: %s %s", e.Field, e.Reason)
}
