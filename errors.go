package xarray

import "github.com/mdframe/xarray/internal/xalloc"

// ErrOutOfMemory is returned (wrapped with key context) when a tree's
// allocator refuses to reserve a node during a store.
var ErrOutOfMemory = xalloc.ErrOutOfMemory
