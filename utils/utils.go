package utils

func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the value behind ptr, or fallback when ptr is nil.
func Deref[T any](ptr *T, fallback T) T {
	if ptr == nil {
		return fallback
	}
	return *ptr
}
