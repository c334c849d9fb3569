package hashtable

// DefaultMaxLoadFactor is the load factor past which the table grows.
const DefaultMaxLoadFactor = 0.7

type options struct {
	fixed   bool
	maxLoad float64
}

// Option configures a Table.
type Option func(*options)

// WithFixedCapacity disables growth. Inserts past the load factor fail with
// ErrTableFull.
func WithFixedCapacity() Option {
	return func(o *options) {
		o.fixed = true
	}
}

// WithMaxLoadFactor sets the load factor threshold. Values outside (0, 1)
// are ignored.
func WithMaxLoadFactor(f float64) Option {
	return func(o *options) {
		if f > 0 && f < 1 {
			o.maxLoad = f
		}
	}
}
