package driven

// IDGenerator allocates identifiers for resources that arrive without one.
// Tests inject deterministic implementations.
type IDGenerator interface {
	NewID() string
}
