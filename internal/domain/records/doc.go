// Package records holds the gorm models behind every tenant-owned entity and
// the kernel's bookkeeping tables.
//
// Only the kernel and the storage bootstrap may import this package; everything
// else sees entities as mutation.Snapshot values.
package records
