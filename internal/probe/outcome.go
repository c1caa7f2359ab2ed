package probe

import (
	"context"
	"regexp"
	"strings"

	"schema-sentinel/internal/dialect"
)

// Outcome is the result of one mutation attempt: either accepted (Err is
// nil) or rejected with a classified error. An accepted mutation is a normal,
// inspectable case; for negative probes it is the finding.
type Outcome struct {
	Err   error
	Class dialect.ErrorClass
}

func classify(ctx context.Context, d dialect.Dialect, err error) Outcome {
	if err == nil {
		return Outcome{}
	}
	if ctx.Err() != nil || dialect.IsConnectionError(err) {
		return Outcome{Err: err, Class: dialect.ClassConnection}
	}
	return Outcome{Err: err, Class: d.Classify(err)}
}

func (o Outcome) Accepted() bool { return o.Err == nil }

// Rejected reports whether the mutation failed with the given class.
func (o Outcome) Rejected(class dialect.ErrorClass) bool {
	return o.Err != nil && o.Class == class
}

// Aborted reports whether the connection (or the probe's deadline) failed.
func (o Outcome) Aborted() bool {
	return o.Rejected(dialect.ClassConnection)
}

// identRef matches identifiers the drivers quote ("col", 'col', `col`, [col])
// or qualify (table.col) in their error messages.
var identRef = regexp.MustCompile("[\"'`\\[]([A-Za-z0-9_$#]+)[\"'`\\]]|\\.([A-Za-z0-9_$#]+)")

// Mentions reports whether the rejection message names column. Quoted or
// qualified identifiers in the message are authoritative; only a message
// without any is searched for column as a whole word.
func (o Outcome) Mentions(column string) bool {
	if o.Err == nil || column == "" {
		return false
	}
	msg := o.Err.Error()
	if refs := identRef.FindAllStringSubmatch(msg, -1); len(refs) > 0 {
		for _, ref := range refs {
			name := ref[1]
			if name == "" {
				name = ref[2]
			}
			if strings.EqualFold(name, column) {
				return true
			}
		}
		return false
	}
	return containsWord(strings.ToLower(msg), strings.ToLower(column))
}

func containsWord(s, word string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(word)
		if (start == 0 || !isIdentByte(s[start-1])) && (end == len(s) || !isIdentByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b == '#' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func (o Outcome) String() string {
	if o.Err == nil {
		return "accepted"
	}
	return string(o.Class) + ": " + o.Err.Error()
}
