package binding

import (
	"reflect"

	"github.com/google/uuid"
)

// StoreKey identifies a lens for store sharing. Exactly one of the two
// fields is set: typeTag for stateless lens types, unique for lenses that
// close over state. Keys are comparable and usable as map keys.
type StoreKey struct {
	typeTag reflect.Type
	unique  string
}

// TypeKey returns the shared key for a stateless lens type.
func TypeKey(t reflect.Type) StoreKey {
	return StoreKey{typeTag: t}
}

// UniqueKey mints a fresh key from the active KeySource.
func UniqueKey() StoreKey {
	return StoreKey{unique: keys.NextKey()}
}

// IsZero reports whether the key is the zero value (no lens).
func (k StoreKey) IsZero() bool {
	return k.typeTag == nil && k.unique == ""
}

func (k StoreKey) String() string {
	if k.typeTag != nil {
		return k.typeTag.String()
	}
	if k.unique != "" {
		return k.unique
	}
	return "<none>"
}

// KeyOf derives the store key for a lens value at construction time.
// Zero-sized lens values (including pointers to zero-sized types) carry no
// state, so every instance is interchangeable and shares a type key.
// Anything else gets a unique key.
func KeyOf(lens any) StoreKey {
	t := reflect.TypeOf(lens)
	if t != nil {
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Size() == 0 {
			return TypeKey(t)
		}
	}
	return UniqueKey()
}

// KeySource mints unique store keys. The default source draws UUIDv7s;
// tests swap in a deterministic source so store identity is stable across
// runs.
type KeySource interface {
	NextKey() string
}

type uuidKeySource struct{}

func (uuidKeySource) NextKey() string {
	return uuid.Must(uuid.NewV7()).String()
}

// keys is the active source. Lens constructors run on the engine's
// goroutine, so a plain package variable suffices.
var keys KeySource = uuidKeySource{}

// SetKeySource installs a key source and returns the previous one so
// callers can restore it.
func SetKeySource(ks KeySource) KeySource {
	if ks == nil {
		panic("binding: nil key source")
	}
	prev := keys
	keys = ks
	return prev
}
