package models

// FieldState records how an optional metadata field obtained its value.
type FieldState int

const (
	// StateAbsent means no source supplied the field.
	StateAbsent FieldState = iota
	// StatePresent means a metadata source supplied the field.
	StatePresent
	// StateDefaulted means a configured fallback was applied.
	StateDefaulted
)

// Field is a tri-state optional value. Absence is distinguishable both from
// the zero value and from an applied default.
type Field[T any] struct {
	value T
	state FieldState
}

// Some returns a field populated from a metadata source.
func Some[T any](v T) Field[T] {
	return Field[T]{value: v, state: StatePresent}
}

// Defaulted returns a field populated from a configured fallback.
func Defaulted[T any](v T) Field[T] {
	return Field[T]{value: v, state: StateDefaulted}
}

// Get returns the value and whether the field is set (present or defaulted).
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state != StateAbsent
}

// Or returns the value when set, otherwise the given fallback.
func (f Field[T]) Or(fallback T) T {
	if f.state == StateAbsent {
		return fallback
	}
	return f.value
}

// IsSet reports whether the field is present or defaulted.
func (f Field[T]) IsSet() bool {
	return f.state != StateAbsent
}

// State returns how the field obtained its value.
func (f Field[T]) State() FieldState {
	return f.state
}
