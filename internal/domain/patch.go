package domain

// Patch is a three-state update field. The zero value means "leave the field
// untouched"; Set carries a new value; Clear resets the field to empty/null.
// The distinction matters for nullable columns and child collections where
// "absent from the request" and "explicitly cleared" are different operations.
type Patch[T any] struct {
	set   bool
	clear bool
	value T
}

// Set returns a patch that replaces the field with v.
func Set[T any](v T) Patch[T] {
	return Patch[T]{set: true, value: v}
}

// Clear returns a patch that resets the field to empty/null.
func Clear[T any]() Patch[T] {
	return Patch[T]{clear: true}
}

// IsSet reports whether the patch carries a replacement value.
func (p Patch[T]) IsSet() bool { return p.set }

// IsClear reports whether the patch clears the field.
func (p Patch[T]) IsClear() bool { return p.clear }

// IsUnset reports whether the patch leaves the field untouched.
func (p Patch[T]) IsUnset() bool { return !p.set && !p.clear }

// Value returns the replacement value and whether one is present.
func (p Patch[T]) Value() (T, bool) {
	return p.value, p.set
}

// ApplyPtr merges the patch into a nullable field: Set replaces it, Clear
// nils it, Unset returns the current value unchanged.
func (p Patch[T]) ApplyPtr(current *T) *T {
	switch {
	case p.set:
		v := p.value
		return &v
	case p.clear:
		return nil
	default:
		return current
	}
}
