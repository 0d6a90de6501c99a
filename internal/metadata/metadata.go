// Package metadata parses a chain's versioned runtime metadata blob into a
// queryable schema.
//
// Each supported schema version has its own structural parser, but all of
// them normalize into the same Metadata shape so downstream components
// never branch on the version. Lookups report misses with an explicit bool
// instead of an error: a miss means "this chain does not support the
// feature", which is recoverable, unlike a decode failure.
package metadata

import (
	"errors"
	"fmt"
)

var (
	// ErrBadMagic is returned when the blob does not start with the fixed
	// 4-byte magic marker.
	ErrBadMagic = errors.New("metadata: bad magic marker")

	// ErrUnsupportedVersion is returned when the schema version byte is not
	// one of the implemented versions.
	ErrUnsupportedVersion = errors.New("metadata: unsupported schema version")
)

// StorageModifier describes whether an absent storage value means None or
// falls back to the entry's default bytes.
type StorageModifier uint8

const (
	ModifierOptional StorageModifier = 0
	ModifierDefault  StorageModifier = 1
)

// Hasher is a metadata-declared storage key hashing algorithm.
type Hasher uint8

const (
	HasherBlake2b128 Hasher = iota
	HasherBlake2b256
	HasherBlake2b128Concat
	HasherTwox128
	HasherTwox256
	HasherTwox64Concat
	HasherIdentity

	hasherCount
)

func (h Hasher) String() string {
	switch h {
	case HasherBlake2b128:
		return "blake2_128"
	case HasherBlake2b256:
		return "blake2_256"
	case HasherBlake2b128Concat:
		return "blake2_128_concat"
	case HasherTwox128:
		return "twox_128"
	case HasherTwox256:
		return "twox_256"
	case HasherTwox64Concat:
		return "twox_64_concat"
	case HasherIdentity:
		return "identity"
	default:
		return fmt.Sprintf("hasher(%d)", uint8(h))
	}
}

// Metadata is the normalized, immutable view of a runtime's metadata.
// Built once per runtime version and replaced wholesale when the node
// reports a new spec version.
type Metadata struct {
	Version uint8
	Modules []Module

	// Extrinsic format info, consumed by transaction builders.
	ExtrinsicVersion uint8
	SignedExtensions []string
}

// Module is one runtime module (pallet) with its queryable tables.
type Module struct {
	Name  string
	Index uint8 // dispatch index for calls

	StoragePrefix string
	Storage       []StorageEntry
	Calls         []Call
	Constants     []Constant
}

// StorageEntry describes one storage item: its key hashing scheme, key
// arity and value type.
type StorageEntry struct {
	Module   string
	Prefix   string // hashed prefix, may differ from the module name
	Name     string
	Modifier StorageModifier
	Hashers  []Hasher // one per declared key
	KeyTypes []string
	Value    string
	Fallback []byte
}

// KeyArity returns the number of key values the entry requires.
func (e *StorageEntry) KeyArity() int {
	return len(e.Hashers)
}

// CallArg is a named, typed extrinsic argument.
type CallArg struct {
	Name string
	Type string
}

// Call identifies a dispatchable extrinsic by its (module, call) index pair.
type Call struct {
	Module      string
	Name        string
	ModuleIndex uint8
	CallIndex   uint8
	Args        []CallArg
}

// Constant is a module constant with its raw SCALE-encoded value.
type Constant struct {
	Module string
	Name   string
	Type   string
	Value  []byte
}

// Module looks up a module by name.
func (m *Metadata) Module(name string) (*Module, bool) {
	for i := range m.Modules {
		if m.Modules[i].Name == name {
			return &m.Modules[i], true
		}
	}
	return nil, false
}

// StorageEntry looks up a storage entry by module and entry name.
func (m *Metadata) StorageEntry(module, name string) (*StorageEntry, bool) {
	mod, ok := m.Module(module)
	if !ok {
		return nil, false
	}
	for i := range mod.Storage {
		if mod.Storage[i].Name == name {
			return &mod.Storage[i], true
		}
	}
	return nil, false
}

// Call looks up a dispatchable call by module and call name.
func (m *Metadata) Call(module, name string) (*Call, bool) {
	mod, ok := m.Module(module)
	if !ok {
		return nil, false
	}
	for i := range mod.Calls {
		if mod.Calls[i].Name == name {
			return &mod.Calls[i], true
		}
	}
	return nil, false
}

// Constant looks up a module constant by name.
func (m *Metadata) Constant(module, name string) (*Constant, bool) {
	mod, ok := m.Module(module)
	if !ok {
		return nil, false
	}
	for i := range mod.Constants {
		if mod.Constants[i].Name == name {
			return &mod.Constants[i], true
		}
	}
	return nil, false
}
