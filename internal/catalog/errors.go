package catalog

import "fmt"

// ConnectionError means the database could not be reached. It aborts the run.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database unreachable: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IntrospectionError names the catalog query that failed. No snapshot is
// produced when one occurs.
type IntrospectionError struct {
	Query string
	Err   error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("catalog query %s failed: %v", e.Query, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }
