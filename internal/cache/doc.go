// Package cache provides a small generic LRU cache with a soft limit.
//
// A sweep uses it to share reference tables between runs: the reference
// filter depends on the frame size and support policy only, so every
// superblock edge verified against the same frame reuses one table.
//
//	refs := cache.New[filter.Params, *filter.Reference](16)
//	ref, err := refs.GetOrCreate(p, func() (*filter.Reference, error) {
//	    return filter.NewReference(p)
//	})
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
