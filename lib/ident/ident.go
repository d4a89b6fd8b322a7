// Package ident issues short random identifiers that are unique within a
// Registry.
//
// Identifiers label elements, injected scripts and handler entries. A
// Registry remembers every identifier it has issued until the identifier is
// released, so two live labels never collide.
package ident

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
)

// DefaultLength is the length used when Generate is called with a
// non-positive length and no WithLength option is given.
const DefaultLength = 4

// Alphanumeric is the default alphabet: A-Z, a-z, 0-9.
const Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ErrIdentifierExhausted is returned when the retry budget runs out and the
// last draw still collides with an issued identifier.
var ErrIdentifierExhausted = errors.New("ident: identifier space exhausted")

// Registry generates identifiers and tracks the issued set.
type Registry struct {
	mu          sync.Mutex
	alphabet    string
	length      int
	maxAttempts func(length int) int
	rng         *rand.Rand
	issued      map[string]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithAlphabet overrides the symbols identifiers are drawn from.
func WithAlphabet(alphabet string) Option {
	return func(r *Registry) {
		if alphabet != "" {
			r.alphabet = alphabet
		}
	}
}

// WithLength sets the length Generate uses for non-positive lengths.
// Non-positive n keeps DefaultLength.
func WithLength(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.length = n
		}
	}
}

// WithMaxAttempts overrides the retry budget for a given length.
func WithMaxAttempts(fn func(length int) int) Option {
	return func(r *Registry) {
		if fn != nil {
			r.maxAttempts = fn
		}
	}
}

// WithSource sets the random source. Tests use a seeded source for
// reproducible draws.
func WithSource(src rand.Source) Option {
	return func(r *Registry) {
		if src != nil {
			r.rng = rand.New(src)
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		alphabet:    Alphanumeric,
		length:      DefaultLength,
		maxAttempts: DefaultMaxAttempts,
		issued:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewChaCha8(seed()))
	}
	return r
}

// DefaultMaxAttempts returns 26^length, saturating at math.MaxInt.
//
// The bound is a heuristic rather than the size of the identifier space
// (the default alphabet has 62 symbols).
func DefaultMaxAttempts(length int) int {
	n := 1
	for i := 0; i < length; i++ {
		if n > math.MaxInt/26 {
			return math.MaxInt
		}
		n *= 26
	}
	return n
}

// Length returns the length Generate uses for non-positive lengths.
func (r *Registry) Length() int {
	return r.length
}

// Generate returns a new identifier of the given length that has not been
// issued before, and records it as issued. A non-positive length uses the
// registry's configured length.
func (r *Registry) Generate(length int) (string, error) {
	if length <= 0 {
		length = r.length
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	budget := r.maxAttempts(length)
	if budget < 1 {
		budget = 1
	}

	var b strings.Builder
	for attempt := 0; attempt < budget; attempt++ {
		b.Reset()
		for i := 0; i < length; i++ {
			b.WriteByte(r.alphabet[r.rng.IntN(len(r.alphabet))])
		}
		id := b.String()
		if _, taken := r.issued[id]; !taken {
			r.issued[id] = struct{}{}
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: length %d after %d attempts", ErrIdentifierExhausted, length, budget)
}

// MustGenerate is like Generate but panics on exhaustion.
func (r *Registry) MustGenerate(length int) string {
	id, err := r.Generate(length)
	if err != nil {
		panic(err)
	}
	return id
}

// Reserve records a caller-chosen identifier as issued. It reports false
// when the identifier is already taken.
func (r *Registry) Reserve(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.issued[id]; taken {
		return false
	}
	r.issued[id] = struct{}{}
	return true
}

// Release removes id from the issued set so it may be drawn again.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	delete(r.issued, id)
	r.mu.Unlock()
}

// Issued reports whether id is currently issued.
func (r *Registry) Issued(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.issued[id]
	return ok
}

// Len returns the number of live identifiers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.issued)
}

func seed() [32]byte {
	var s [32]byte
	if _, err := crand.Read(s[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to the
		// global generator rather than a zero seed.
		for i := 0; i < len(s); i += 8 {
			binary.LittleEndian.PutUint64(s[i:], rand.Uint64())
		}
	}
	return s
}
