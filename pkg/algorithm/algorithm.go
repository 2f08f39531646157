// Package algorithm implements the card's algorithm-capability
// registry: a growable list of algorithm descriptors with a
// linear-scan lookup keyed by (algorithm, key length), grounded on
// OpenSC's _sc_card_add_algorithm/_sc_card_add_rsa_alg/
// _sc_card_find_rsa_alg.
package algorithm

// ID names an algorithm family. The set below covers what the card
// operation façade and its tests exercise; card drivers are free to
// register IDs outside this list.
type ID int

const (
	RSA ID = iota
	DSA
	EC
	GOSTR3410
)

// Info describes one algorithm the card supports at a given key
// length.
type Info struct {
	Algorithm ID
	KeyLength int
	Flags     uint32
	RSAExponent uint64 // meaningful only when Algorithm == RSA
}

// NewRSA builds an Info for an RSA key of the given length, flags, and
// public exponent — the convenience constructor the registry is built
// around, mirroring _sc_card_add_rsa_alg.
func NewRSA(keyLength int, flags uint32, exponent uint64) Info {
	return Info{Algorithm: RSA, KeyLength: keyLength, Flags: flags, RSAExponent: exponent}
}

// Registry is a card's growable list of supported algorithms.
type Registry struct {
	infos []Info
}

// Add appends info to the registry. There is no dedup: a driver that
// registers the same (algorithm, key length) twice gets two entries,
// and Find always returns the first.
func (r *Registry) Add(info Info) {
	r.infos = append(r.infos, info)
}

// Find returns the first registered Info matching id and keyLength, or
// false if none matches. The scan is linear and in registration order,
// matching _sc_card_find_rsa_alg's borrowed-reference, first-match
// semantics.
func (r *Registry) Find(id ID, keyLength int) (Info, bool) {
	for _, info := range r.infos {
		if info.Algorithm == id && info.KeyLength == keyLength {
			return info, true
		}
	}
	return Info{}, false
}

// All returns every registered algorithm, in registration order. The
// returned slice is a copy; mutating it does not affect the registry.
func (r *Registry) All() []Info {
	out := make([]Info, len(r.infos))
	copy(out, r.infos)
	return out
}

// Len reports how many algorithms are registered.
func (r *Registry) Len() int { return len(r.infos) }
