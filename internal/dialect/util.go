package dialect

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
)

// GeneratePlaceholders is a helper function to create a slice of placeholder strings.
// It takes the number of placeholders needed and a function that returns the placeholder for a given index.
// It returns a comma-separated string of the generated placeholders.
func GeneratePlaceholders(count int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(i)
	}
	return strings.Join(placeholders, ", ")
}

// DefaultNormalizeType is a default implementation for type normalization (lowercase).
func DefaultNormalizeType(sqlType string) string {
	return strings.ToLower(sqlType)
}

// DefaultGetSchemaName is a default implementation for Getting Schema Name (identity).
func DefaultGetSchemaName(input string) string {
	return input
}

func quoteWith(name, opening, closing string) string {
	return opening + strings.ReplaceAll(name, closing, closing+closing) + closing
}

func quoteList(cols []string, quote func(string) string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

// IsConnectionError reports whether err means the connection itself is unusable
// (or the caller's deadline passed) rather than a statement being rejected.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// ClassifyMessage is the fallback classifier used when a driver error carries no
// usable code. Matching is on the lower-cased message text.
func ClassifyMessage(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if IsConnectionError(err) {
		return ClassConnection
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "foreign key") || strings.Contains(msg, "ora-02291") ||
		strings.Contains(msg, "referential"):
		return ClassForeignKey
	case strings.Contains(msg, "not null") || strings.Contains(msg, "not-null") ||
		strings.Contains(msg, "null value in column") || strings.Contains(msg, "cannot insert the value null") ||
		strings.Contains(msg, "cannot be null") || strings.Contains(msg, "doesn't have a default value") ||
		strings.Contains(msg, "ora-01400"):
		return ClassNotNull
	case strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "ora-00001"):
		return ClassUnique
	case strings.Contains(msg, "check constraint") || strings.Contains(msg, "ora-02290"):
		return ClassCheck
	default:
		return ClassOther
	}
}
