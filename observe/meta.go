package observe

import "strings"

// StatementMeta describes a statement for telemetry. It never carries the
// statement text; the fingerprint identifies it.
type StatementMeta struct {
	System      string // database system, e.g. postgresql
	Database    string // database name (optional)
	Operation   string // leading SQL keyword, e.g. SELECT
	Fingerprint string // hex statement fingerprint
}

// SpanName returns "explain <system>", or "explain" when the system is unknown.
func (m StatementMeta) SpanName() string {
	if m.System == "" {
		return "explain"
	}
	return "explain " + m.System
}

// OperationOf returns the upper-cased first word of a statement.
func OperationOf(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimLeft(fields[0], "("))
}
