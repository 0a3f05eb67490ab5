package assoc

import (
	"strings"

	"github.com/google/uuid"
)

// Namespace seeds every key ID. Changing it changes every generated key.
var Namespace = uuid.MustParse("6f1c3b7e-2a41-5d8e-9c0b-41a7d3e5f902")

// Value keys always continue "__associated" with an underscore, so no value
// key can share a name with a setted key.
const (
	keyPrefix       = "__associated_"
	settedKeyPrefix = "__associatedSetted_"
	keySuffix       = "_Key"
)

// Allocate derives the storage keys for spec. It is pure: the same spec
// always yields the same keys, and distinct properties of one owner never
// share a key.
func Allocate(spec PropertySpec) StorageKeys {
	keys := StorageKeys{Value: NewKey(spec.Owner, spec.Name)}
	if spec.NeedsSettedFlag() {
		setted := NewSettedKey(spec.Owner, spec.Name)
		keys.Setted = &setted
	}
	return keys
}

// NewKey returns the value-slot key for owner.name.
func NewKey(owner, name string) Key {
	return Key{
		Name: keyPrefix + keyStem(owner, name) + keySuffix,
		ID:   uuid.NewSHA1(Namespace, []byte(qualifiedName(owner, name))),
	}
}

// NewSettedKey returns the setted-flag key for owner.name.
func NewSettedKey(owner, name string) Key {
	return Key{
		Name: settedKeyPrefix + keyStem(owner, name) + keySuffix,
		ID:   uuid.NewSHA1(Namespace, []byte(qualifiedName(owner, name)+".setted")),
	}
}

func keyStem(owner, name string) string {
	if owner == "" {
		return name
	}
	return sanitizeIdent(owner) + "_" + name
}

func qualifiedName(owner, name string) string {
	if owner == "" {
		return name
	}
	return owner + "." + name
}

// sanitizeIdent maps an owner label such as "pkg.Type[T]" to identifier runes.
func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
