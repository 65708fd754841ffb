package storage

// DetectBackendLabel returns a normalized label for a backend, looking
// through instrumentation and fail-open wrappers.
func DetectBackendLabel(backend IndexBackend) string {
	for {
		u, ok := backend.(interface{ Unwrap() IndexBackend })
		if !ok {
			break
		}
		backend = u.Unwrap()
	}
	switch backend.(type) {
	case *KVRestBackend:
		return "kvrest"
	case *RedisBackend:
		return "redis"
	case *PostgresBackend:
		return "postgres"
	case *MongoDBBackend:
		return "mongodb"
	case *MemoryBackend:
		return "memory"
	case NoopBackend, *NoopBackend:
		return "none"
	default:
		return "unknown"
	}
}
