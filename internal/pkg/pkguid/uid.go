package pkguid

// StringID issues opaque string IDs such as dataset file IDs.
type StringID interface {
	Generate() string
}

// NumberID issues time-ordered int64 IDs such as dataset event IDs.
type NumberID interface {
	Generate() int64
}
