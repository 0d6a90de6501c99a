package metadata

import (
	"fmt"

	"github.com/Meridian-labs/meridian-wallet/pkg/scale"
)

// magicMarker is the fixed 4-byte prefix of every metadata blob.
const magicMarker = "meta"

// Decode parses a raw metadata blob. It fails with ErrBadMagic when the
// leading bytes are wrong and ErrUnsupportedVersion when the schema version
// is not implemented; in both cases no partially-built Metadata is returned.
func Decode(raw []byte) (*Metadata, error) {
	if len(raw) < len(magicMarker)+1 {
		return nil, fmt.Errorf("metadata blob too short (%d bytes): %w", len(raw), scale.ErrUnexpectedEOF)
	}
	if string(raw[:len(magicMarker)]) != magicMarker {
		return nil, fmt.Errorf("%w: got %x", ErrBadMagic, raw[:len(magicMarker)])
	}

	version := raw[len(magicMarker)]
	switch version {
	case 11, 12, 13:
		return decodeModules(raw, len(magicMarker)+1, version)
	default:
		return nil, fmt.Errorf("%w: v%d", ErrUnsupportedVersion, version)
	}
}

// decodeModules parses the module/storage/call/constant tables shared by
// schema versions 11 through 13. Differences between the versions:
//   - v11 has no explicit module index; the dispatch index of a module is
//     its position among the modules that declare calls.
//   - v12 and v13 carry an explicit per-module index byte.
//   - v13 adds the NMap storage entry kind.
func decodeModules(raw []byte, off int, version uint8) (*Metadata, error) {
	p := &parser{raw: raw, version: version}

	modules, n, err := scale.DecodeVec(raw, off, p.module)
	if err != nil {
		return nil, fmt.Errorf("metadata v%d modules: %w", version, err)
	}
	off += n

	if version < 12 {
		assignImplicitIndices(modules)
	}

	extrinsicVersion, n, err := scale.DecodeU8(raw, off)
	if err != nil {
		return nil, fmt.Errorf("metadata v%d extrinsic version: %w", version, err)
	}
	off += n

	signedExtensions, _, err := scale.DecodeVec(raw, off, scale.DecodeString)
	if err != nil {
		return nil, fmt.Errorf("metadata v%d signed extensions: %w", version, err)
	}

	return &Metadata{
		Version:          version,
		Modules:          modules,
		ExtrinsicVersion: extrinsicVersion,
		SignedExtensions: signedExtensions,
	}, nil
}

// assignImplicitIndices reproduces the pre-v12 dispatch index scheme: the
// runtime's Call enum only includes call-bearing modules, in declaration
// order.
func assignImplicitIndices(modules []Module) {
	next := uint8(0)
	for i := range modules {
		if modules[i].Calls == nil {
			continue
		}
		modules[i].Index = next
		for j := range modules[i].Calls {
			modules[i].Calls[j].ModuleIndex = next
		}
		next++
	}
}

type parser struct {
	raw     []byte
	version uint8
}

func (p *parser) module(buf []byte, off int) (Module, int, error) {
	var m Module
	start := off

	name, n, err := scale.DecodeString(buf, off)
	if err != nil {
		return m, 0, fmt.Errorf("module name: %w", err)
	}
	m.Name = name
	off += n

	storage, n, err := scale.DecodeOption(buf, off, p.storage)
	if err != nil {
		return m, 0, fmt.Errorf("module %s storage: %w", m.Name, err)
	}
	off += n
	if storage != nil {
		m.StoragePrefix = storage.prefix
		m.Storage = storage.entries
		for i := range m.Storage {
			m.Storage[i].Module = m.Name
			m.Storage[i].Prefix = storage.prefix
		}
	}

	calls, n, err := scale.DecodeOption(buf, off, p.calls)
	if err != nil {
		return m, 0, fmt.Errorf("module %s calls: %w", m.Name, err)
	}
	off += n
	if calls != nil {
		// A present-but-empty call table still counts for the pre-v12
		// implicit index assignment, so nil and empty are kept distinct.
		m.Calls = *calls
		for i := range m.Calls {
			m.Calls[i].Module = m.Name
			m.Calls[i].CallIndex = uint8(i)
		}
	}

	// Events are consumed for cursor correctness but not modeled.
	_, n, err = scale.DecodeOption(buf, off, p.events)
	if err != nil {
		return m, 0, fmt.Errorf("module %s events: %w", m.Name, err)
	}
	off += n

	constants, n, err := scale.DecodeVec(buf, off, p.constant)
	if err != nil {
		return m, 0, fmt.Errorf("module %s constants: %w", m.Name, err)
	}
	off += n
	m.Constants = constants
	for i := range m.Constants {
		m.Constants[i].Module = m.Name
	}

	// Error variants: consumed, not modeled.
	_, n, err = scale.DecodeVec(buf, off, p.errorVariant)
	if err != nil {
		return m, 0, fmt.Errorf("module %s errors: %w", m.Name, err)
	}
	off += n

	if p.version >= 12 {
		index, n, err := scale.DecodeU8(buf, off)
		if err != nil {
			return m, 0, fmt.Errorf("module %s index: %w", m.Name, err)
		}
		off += n
		m.Index = index
		for i := range m.Calls {
			m.Calls[i].ModuleIndex = index
		}
	}

	return m, off - start, nil
}

type storageTable struct {
	prefix  string
	entries []StorageEntry
}

func (p *parser) storage(buf []byte, off int) (storageTable, int, error) {
	var st storageTable
	start := off

	prefix, n, err := scale.DecodeString(buf, off)
	if err != nil {
		return st, 0, fmt.Errorf("storage prefix: %w", err)
	}
	st.prefix = prefix
	off += n

	entries, n, err := scale.DecodeVec(buf, off, p.storageEntry)
	if err != nil {
		return st, 0, err
	}
	st.entries = entries
	off += n

	return st, off - start, nil
}

func (p *parser) storageEntry(buf []byte, off int) (StorageEntry, int, error) {
	var e StorageEntry
	start := off

	name, n, err := scale.DecodeString(buf, off)
	if err != nil {
		return e, 0, fmt.Errorf("storage entry name: %w", err)
	}
	e.Name = name
	off += n

	modifier, n, err := scale.DecodeU8(buf, off)
	if err != nil {
		return e, 0, fmt.Errorf("storage entry %s modifier: %w", e.Name, err)
	}
	if modifier > uint8(ModifierDefault) {
		return e, 0, fmt.Errorf("storage entry %s: invalid modifier %d", e.Name, modifier)
	}
	e.Modifier = StorageModifier(modifier)
	off += n

	n, err = p.storageEntryType(buf, off, &e)
	if err != nil {
		return e, 0, fmt.Errorf("storage entry %s: %w", e.Name, err)
	}
	off += n

	fallback, n, err := scale.DecodeBytes(buf, off)
	if err != nil {
		return e, 0, fmt.Errorf("storage entry %s fallback: %w", e.Name, err)
	}
	e.Fallback = fallback
	off += n

	_, n, err = scale.DecodeVec(buf, off, scale.DecodeString) // docs
	if err != nil {
		return e, 0, fmt.Errorf("storage entry %s docs: %w", e.Name, err)
	}
	off += n

	return e, off - start, nil
}

// storageEntryType parses the Plain / Map / DoubleMap (/ NMap on v13)
// variants into the normalized hasher/key/value shape.
func (p *parser) storageEntryType(buf []byte, off int, e *StorageEntry) (int, error) {
	tag, n, err := scale.DecodeU8(buf, off)
	if err != nil {
		return 0, fmt.Errorf("type tag: %w", err)
	}
	start := off
	off += n

	switch tag {
	case 0: // Plain
		value, n, err := scale.DecodeString(buf, off)
		if err != nil {
			return 0, fmt.Errorf("plain value type: %w", err)
		}
		e.Value = value
		off += n

	case 1: // Map
		hasher, n, err := p.hasher(buf, off)
		if err != nil {
			return 0, err
		}
		off += n
		key, n, err := scale.DecodeString(buf, off)
		if err != nil {
			return 0, fmt.Errorf("map key type: %w", err)
		}
		off += n
		value, n, err := scale.DecodeString(buf, off)
		if err != nil {
			return 0, fmt.Errorf("map value type: %w", err)
		}
		off += n
		_, n, err = scale.DecodeBool(buf, off) // linked-map flag
		if err != nil {
			return 0, err
		}
		off += n
		e.Hashers = []Hasher{hasher}
		e.KeyTypes = []string{key}
		e.Value = value

	case 2: // DoubleMap
		hasher1, n, err := p.hasher(buf, off)
		if err != nil {
			return 0, err
		}
		off += n
		key1, n, err := scale.DecodeString(buf, off)
		if err != nil {
			return 0, fmt.Errorf("double map first key type: %w", err)
		}
		off += n
		key2, n, err := scale.DecodeString(buf, off)
		if err != nil {
			return 0, fmt.Errorf("double map second key type: %w", err)
		}
		off += n
		value, n, err := scale.DecodeString(buf, off)
		if err != nil {
			return 0, fmt.Errorf("double map value type: %w", err)
		}
		off += n
		hasher2, n, err := p.hasher(buf, off)
		if err != nil {
			return 0, err
		}
		off += n
		e.Hashers = []Hasher{hasher1, hasher2}
		e.KeyTypes = []string{key1, key2}
		e.Value = value

	case 3: // NMap, v13 only
		if p.version < 13 {
			return 0, fmt.Errorf("nmap entry in metadata v%d", p.version)
		}
		keys, n, err := scale.DecodeVec(buf, off, scale.DecodeString)
		if err != nil {
			return 0, fmt.Errorf("nmap key types: %w", err)
		}
		off += n
		hashers, n, err := scale.DecodeVec(buf, off, p.hasher)
		if err != nil {
			return 0, fmt.Errorf("nmap hashers: %w", err)
		}
		off += n
		value, n, err := scale.DecodeString(buf, off)
		if err != nil {
			return 0, fmt.Errorf("nmap value type: %w", err)
		}
		off += n
		if len(keys) != len(hashers) {
			return 0, fmt.Errorf("nmap declares %d keys but %d hashers", len(keys), len(hashers))
		}
		e.Hashers = hashers
		e.KeyTypes = keys
		e.Value = value

	default:
		return 0, fmt.Errorf("invalid storage type tag %d", tag)
	}

	return off - start, nil
}

func (p *parser) hasher(buf []byte, off int) (Hasher, int, error) {
	v, n, err := scale.DecodeU8(buf, off)
	if err != nil {
		return 0, 0, fmt.Errorf("hasher: %w", err)
	}
	if v >= uint8(hasherCount) {
		return 0, 0, fmt.Errorf("invalid hasher tag %d", v)
	}
	return Hasher(v), n, nil
}

func (p *parser) calls(buf []byte, off int) ([]Call, int, error) {
	return scale.DecodeVec(buf, off, p.call)
}

func (p *parser) call(buf []byte, off int) (Call, int, error) {
	var c Call
	start := off

	name, n, err := scale.DecodeString(buf, off)
	if err != nil {
		return c, 0, fmt.Errorf("call name: %w", err)
	}
	c.Name = name
	off += n

	args, n, err := scale.DecodeVec(buf, off, p.callArg)
	if err != nil {
		return c, 0, fmt.Errorf("call %s args: %w", c.Name, err)
	}
	c.Args = args
	off += n

	_, n, err = scale.DecodeVec(buf, off, scale.DecodeString) // docs
	if err != nil {
		return c, 0, fmt.Errorf("call %s docs: %w", c.Name, err)
	}
	off += n

	return c, off - start, nil
}

func (p *parser) callArg(buf []byte, off int) (CallArg, int, error) {
	var a CallArg
	start := off

	name, n, err := scale.DecodeString(buf, off)
	if err != nil {
		return a, 0, fmt.Errorf("arg name: %w", err)
	}
	a.Name = name
	off += n

	typ, n, err := scale.DecodeString(buf, off)
	if err != nil {
		return a, 0, fmt.Errorf("arg type: %w", err)
	}
	a.Type = typ
	off += n

	return a, off - start, nil
}

// events consumes an event table without retaining it.
func (p *parser) events(buf []byte, off int) (struct{}, int, error) {
	_, n, err := scale.DecodeVec(buf, off, func(buf []byte, off int) (struct{}, int, error) {
		start := off
		_, n, err := scale.DecodeString(buf, off) // name
		if err != nil {
			return struct{}{}, 0, err
		}
		off += n
		_, n, err = scale.DecodeVec(buf, off, scale.DecodeString) // arg types
		if err != nil {
			return struct{}{}, 0, err
		}
		off += n
		_, n, err = scale.DecodeVec(buf, off, scale.DecodeString) // docs
		if err != nil {
			return struct{}{}, 0, err
		}
		off += n
		return struct{}{}, off - start, nil
	})
	return struct{}{}, n, err
}

func (p *parser) constant(buf []byte, off int) (Constant, int, error) {
	var c Constant
	start := off

	name, n, err := scale.DecodeString(buf, off)
	if err != nil {
		return c, 0, fmt.Errorf("constant name: %w", err)
	}
	c.Name = name
	off += n

	typ, n, err := scale.DecodeString(buf, off)
	if err != nil {
		return c, 0, fmt.Errorf("constant %s type: %w", c.Name, err)
	}
	c.Type = typ
	off += n

	value, n, err := scale.DecodeBytes(buf, off)
	if err != nil {
		return c, 0, fmt.Errorf("constant %s value: %w", c.Name, err)
	}
	c.Value = value
	off += n

	_, n, err = scale.DecodeVec(buf, off, scale.DecodeString) // docs
	if err != nil {
		return c, 0, fmt.Errorf("constant %s docs: %w", c.Name, err)
	}
	off += n

	return c, off - start, nil
}

// errorVariant consumes one declared module error without retaining it.
func (p *parser) errorVariant(buf []byte, off int) (struct{}, int, error) {
	start := off
	_, n, err := scale.DecodeString(buf, off) // name
	if err != nil {
		return struct{}{}, 0, err
	}
	off += n
	_, n, err = scale.DecodeVec(buf, off, scale.DecodeString) // docs
	if err != nil {
		return struct{}{}, 0, err
	}
	off += n
	return struct{}{}, off - start, nil
}
