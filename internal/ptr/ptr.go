package ptr

func To[T any](v T) *T { return &v }

func String(v string) *string { return &v }
func Int(v int) *int          { return &v }

// NonZero is nil for the zero value of T.
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}

	return &v
}

// Deref is the zero value of T for a nil pointer.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}

	return *p
}
