package identity

import (
	"cmp"
	"errors"
	"strconv"
)

// Identity is an opaque key assigned once per entity at construction.
// The zero value is None and never names a live entity.
type Identity uint64

// None is the reserved "no identity" value.
const None Identity = 0

var (
	ErrIdentitySpaceExhausted = errors.New("identity space exhausted")
	ErrInvalidIdentity        = errors.New("invalid identity")
)

// IsZero reports whether id is None.
func (id Identity) IsZero() bool { return id == None }

// Uint64 returns the underlying integer, suitable for logs and persistence.
func (id Identity) Uint64() uint64 { return uint64(id) }

// Compare returns -1, 0 or +1 depending on whether id sorts before, equal to or after other.
func (id Identity) Compare(other Identity) int { return cmp.Compare(id, other) }

func (id Identity) Less(other Identity) bool { return id < other }

func (id Identity) String() string {
	return "#" + strconv.FormatUint(uint64(id), 10)
}

// MarshalText encodes the identity as a decimal integer so it can be used as a
// JSON/YAML map key.
func (id Identity) MarshalText() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(id), 10), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 10, 64)
	if err != nil {
		return errors.Join(ErrInvalidIdentity, err)
	}
	*id = Identity(v)
	return nil
}

// MarshalJSON keeps identity values numeric in JSON documents.
func (id Identity) MarshalJSON() ([]byte, error) {
	return id.MarshalText()
}

func (id *Identity) UnmarshalJSON(data []byte) error {
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	return id.UnmarshalText(data)
}

// Parse reads an identity from its decimal form, with or without the "#" prefix.
func Parse(s string) (Identity, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	var id Identity
	if err := id.UnmarshalText([]byte(s)); err != nil {
		return None, err
	}
	return id, nil
}
