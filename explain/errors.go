package explain

import "errors"

var (
	// ErrNilCache indicates NewGate was given a nil admission cache.
	ErrNilCache = errors.New("explain: admission cache is nil")

	// ErrNilExplainFunc indicates Run was given a nil ExplainFunc.
	ErrNilExplainFunc = errors.New("explain: explain func is nil")

	// ErrNilQuerier indicates NewSQLExplainer was given a nil Querier.
	ErrNilQuerier = errors.New("explain: querier is nil")
)
