// Package validation validates the one thing the coordinator's public
// contract actually needs validated at the boundary: the key.
package validation

import (
	"unicode"

	"github.com/shaigeva/tiercache/internal/cacheerr"
)

// MaxKeySize bounds keys to a sane length; the spec only requires
// "non-empty," this is an added guard against pathological input,
// grounded on the teacher's own key-size ceiling.
const MaxKeySize = 1024

// Validator validates keys passed across the public contract.
type Validator struct {
	maxKeySize int
}

// NewValidator creates a validator with the default key-size limit.
func NewValidator() *Validator {
	return &Validator{maxKeySize: MaxKeySize}
}

// ValidateKey checks that key is non-empty, within the size limit, and
// free of NUL bytes and of control characters other than tab and newline.
func (v *Validator) ValidateKey(key string) error {
	if key == "" {
		return cacheerr.InvalidKey(key, "key cannot be empty")
	}
	if len(key) > v.maxKeySize {
		return cacheerr.InvalidKey(key, "key exceeds maximum length")
	}
	for _, r := range key {
		if r == 0 {
			return cacheerr.InvalidKey(key, "key cannot contain a null byte")
		}
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return cacheerr.InvalidKey(key, "key cannot contain control characters")
		}
	}
	return nil
}

// ValidateKeys validates every key in a batch. It does not check for
// duplicates: PutMany's map[string]R input can't carry one by
// construction, and GetMany/DeleteMany's original implementation
// silently processes repeats in a plain list with no such check either.
func (v *Validator) ValidateKeys(keys []string) error {
	for _, key := range keys {
		if err := v.ValidateKey(key); err != nil {
			return err
		}
	}
	return nil
}
