package dataframe

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/cube2222/octoframe/plan"
	"github.com/cube2222/octoframe/serialization"
	"github.com/cube2222/octoframe/transport"
)

// ErrorKind classifies why a flush failed. Kinds match themselves under errors.Is,
// so errors.Is(err, dataframe.ConnectionError) works on any error a flush returns.
type ErrorKind int

const (
	AllocationError ErrorKind = iota + 1
	SerializationError
	ConnectionError
	ResponseTimeoutError
	ProtocolError
)

func (k ErrorKind) String() string {
	switch k {
	case AllocationError:
		return "allocation error"
	case SerializationError:
		return "serialization error"
	case ConnectionError:
		return "connection error"
	case ResponseTimeoutError:
		return "response timeout"
	case ProtocolError:
		return "protocol error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) Error() string {
	return k.String()
}

var ErrEmptySource = errors.New("read source must not be empty")

// FlushError reports a failed eager operation. The graph and checkpoint are
// left as they were before the operation was issued.
type FlushError struct {
	Operation plan.Kind
	NodeID    uint64
	Kind      ErrorKind
	Err       error
}

func (e *FlushError) Error() string {
	if e.NodeID == 0 {
		return fmt.Sprintf("%s failed with %s: %s", e.Operation, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s #%d failed with %s: %s", e.Operation, e.NodeID, e.Kind, e.Err)
}

func (e *FlushError) Unwrap() error {
	return e.Err
}

func (e *FlushError) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

func classify(err error) ErrorKind {
	var flushErr *FlushError
	switch {
	case errors.As(err, &flushErr):
		return flushErr.Kind
	case errors.Is(err, plan.ErrIDsExhausted):
		return AllocationError
	case errors.Is(err, serialization.ErrEncode),
		errors.Is(err, ErrEmptySource):
		return SerializationError
	case errors.Is(err, transport.ErrResponseTimeout):
		return ResponseTimeoutError
	case errors.Is(err, serialization.ErrInvalidResponse),
		errors.Is(err, serialization.ErrTooLarge):
		return ProtocolError
	default:
		return ConnectionError
	}
}
