package pointers

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func Float32(v float32) *float32 { return &v }
