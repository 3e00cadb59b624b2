package ports

// KeyValue is one stored entry returned by prefix scans.
type KeyValue struct {
	Key   string
	Value []byte
}

// StoragePort is the persistence capability: an opaque key/value store used
// to carry graphs and archived runs across sessions. The engine functions
// without one for a single in-memory session.
type StoragePort interface {
	Get(key string) (value []byte, exists bool, err error)
	Put(key string, value []byte) error
	Delete(key string) error
	ListByPrefix(prefix string) ([]KeyValue, error)
	Close() error
}
