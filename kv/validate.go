package kv

import (
	"fmt"

	workerskv "github.com/tarmac-project/workerskv"
)

// Service limits enforced before any request is sent.
const (
	MaxKeysLimit = 1000
	MinKeysLimit = 10
	// MaxKeyLength counts UTF-8 bytes, not characters, as the service does.
	// A key of 300 two-byte characters is 600 bytes long and is rejected.
	MaxKeyLength = 512
	// MaxValueLength counts bytes.
	MaxValueLength          = 10 * 1024 * 1024
	MinExpirationTTLSeconds = 60
	MaxMultipleKeysLength   = 10000
)

// Namespace listing defaults applied when options are left zero.
const (
	DefaultPage    = 1
	DefaultPerPage = 50
)

var (
	// ErrInvalidLimit indicates a page size outside MinKeysLimit..MaxKeysLimit.
	ErrInvalidLimit = fmt.Errorf("%w: limit is out of range", workerskv.ErrValidation)

	// ErrInvalidPage indicates a negative namespace page or page size.
	ErrInvalidPage = fmt.Errorf("%w: page and per page must be positive", workerskv.ErrValidation)

	// ErrInvalidKey indicates an empty key or one longer than MaxKeyLength bytes.
	ErrInvalidKey = fmt.Errorf("%w: key is invalid", workerskv.ErrValidation)

	// ErrInvalidValue indicates an empty value or one longer than MaxValueLength bytes.
	ErrInvalidValue = fmt.Errorf("%w: value is invalid", workerskv.ErrValidation)

	// ErrInvalidKeys indicates an empty list of keys.
	ErrInvalidKeys = fmt.Errorf("%w: keys must be a non-empty list of key names", workerskv.ErrValidation)

	// ErrInvalidKeyValues indicates an empty bulk write or one repeating a key.
	ErrInvalidKeyValues = fmt.Errorf("%w: key values must map unique keys to values", workerskv.ErrValidation)

	// ErrTooManyKeys indicates a bulk operation over MaxMultipleKeysLength items.
	ErrTooManyKeys = fmt.Errorf("%w: too many keys", workerskv.ErrValidation)

	// ErrNamespaceRequired indicates neither the client nor the operation named a namespace.
	ErrNamespaceRequired = fmt.Errorf(
		"%w: namespace id was provided to neither the client nor the operation",
		workerskv.ErrValidation,
	)

	// ErrInvalidExpirationTTL indicates a relative expiry below MinExpirationTTLSeconds.
	ErrInvalidExpirationTTL = fmt.Errorf("%w: expiration ttl is too short", workerskv.ErrValidation)
)

// CheckLimit fails unless MinKeysLimit <= limit <= MaxKeysLimit.
func CheckLimit(limit int) error {
	if limit < MinKeysLimit || limit > MaxKeysLimit {
		return fmt.Errorf("%w: limit should be between %d and %d, given limit: %d",
			ErrInvalidLimit, MinKeysLimit, MaxKeysLimit, limit)
	}
	return nil
}

// CheckKey fails unless key is non-empty and at most MaxKeyLength bytes.
// Length is measured in bytes, so multibyte characters count more than once
// and a key under 512 characters can still be too long.
func CheckKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidKey)
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: key length %d exceeds %d", ErrInvalidKey, len(key), MaxKeyLength)
	}
	return nil
}

// CheckKeyValue checks the key, then fails unless value is non-empty and at
// most MaxValueLength bytes.
func CheckKeyValue(key, value string) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%w: value must not be empty", ErrInvalidValue)
	}
	if len(value) > MaxValueLength {
		return fmt.Errorf("%w: value length %d exceeds %d", ErrInvalidValue, len(value), MaxValueLength)
	}
	return nil
}

// CheckKeys fails unless keys is non-empty, holds at most
// MaxMultipleKeysLength entries and every key passes CheckKey.
func CheckKeys(keys []string) error {
	if len(keys) == 0 {
		return ErrInvalidKeys
	}
	if err := checkMultipleKeysLength(len(keys)); err != nil {
		return err
	}
	for i, k := range keys {
		if err := CheckKey(k); err != nil {
			return fmt.Errorf("keys[%d]: %w", i, err)
		}
	}
	return nil
}

// CheckKeyValues fails unless kvs is non-empty, holds at most
// MaxMultipleKeysLength unique keys and every pair passes CheckKeyValue.
func CheckKeyValues(kvs []KeyValue) error {
	if len(kvs) == 0 {
		return ErrInvalidKeyValues
	}
	if err := checkMultipleKeysLength(len(kvs)); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(kvs))
	for i, kv := range kvs {
		if err := CheckKeyValue(kv.Key, kv.Value); err != nil {
			return fmt.Errorf("key values[%d]: %w", i, err)
		}
		if _, dup := seen[kv.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidKeyValues, kv.Key)
		}
		seen[kv.Key] = struct{}{}
	}
	return nil
}

// ResolveNamespaceID returns override when set, otherwise defaultID.
func ResolveNamespaceID(defaultID, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if defaultID != "" {
		return defaultID, nil
	}
	return "", ErrNamespaceRequired
}

func checkMultipleKeysLength(n int) error {
	if n > MaxMultipleKeysLength {
		return fmt.Errorf("%w: at most %d items are allowed, got %d", ErrTooManyKeys, MaxMultipleKeysLength, n)
	}
	return nil
}

// CheckExpirationTTL fails when a relative expiry is set below
// MinExpirationTTLSeconds. Zero means no expiry.
func CheckExpirationTTL(ttl int64) error {
	if ttl != 0 && ttl < MinExpirationTTLSeconds {
		return fmt.Errorf("%w: expiration ttl should be at least %d seconds, got %d",
			ErrInvalidExpirationTTL, MinExpirationTTLSeconds, ttl)
	}
	return nil
}
