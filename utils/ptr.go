package utils

func Ptr[T any](v T) *T {
	return &v
}

func OrZero[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func StringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
