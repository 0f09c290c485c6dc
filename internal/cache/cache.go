// Package cache keeps rendered documents in memory.
package cache

// Cache maps string keys to values of T. Implementations are safe for
// concurrent use.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	// Size counts live entries.
	Size() int
}
