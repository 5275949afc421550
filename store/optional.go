package store

// Optional tells a value that was supplied apart from one that was not.
// A present empty string is a value, absence is not.
type Optional[T any] struct {
	value   T
	present bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr is present whenever v is not nil, including a pointer to a zero value.
func FromPtr[T any](v *T) Optional[T] {
	if v == nil {
		return None[T]()
	}

	return Some(*v)
}

// NonEmpty treats an empty string as not supplied.
func NonEmpty(v string) Optional[string] {
	if v == "" {
		return None[string]()
	}

	return Some(v)
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

func (o Optional[T]) IsPresent() bool {
	return o.present
}

func (o Optional[T]) OrElse(def T) T {
	if o.present {
		return o.value
	}

	return def
}
