package async

// An Option either holds a value of type T or holds nothing.
//
// [Sequence.Next] resolves with an Option: [Some] for a produced value,
// [None] for the end marker that signals no more values will ever come.
type Option[T any] struct {
	value T
	ok    bool
}

// Some returns an Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// None returns an Option holding nothing.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the held value and whether there is one.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}
