package plan

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the operation a node asks the executor to perform.
// Its text form is part of the wire contract.
type Kind int

const (
	Empty Kind = iota
	Read
	Select
	Where
	Sum
	Count
	Fetch
)

var kindNames = [...]string{
	Empty:  "Empty",
	Read:   "Read",
	Select: "Select",
	Where:  "Where",
	Sum:    "Sum",
	Count:  "Count",
	Fetch:  "Fetch",
}

var ErrUnknownKind = errors.New("unknown operation kind")

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return Empty, errors.Wrapf(ErrUnknownKind, "'%s'", s)
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Lazy reports whether the kind is only buffered.
// Read counts as lazy: it never touches the network itself.
func (k Kind) Lazy() bool {
	switch k {
	case Read, Select, Where:
		return true
	default:
		return false
	}
}

// Eager reports whether appending the kind triggers a flush.
func (k Kind) Eager() bool {
	switch k {
	case Sum, Count, Fetch:
		return true
	default:
		return false
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, errors.Wrapf(ErrUnknownKind, "%d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
