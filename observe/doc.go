// Package observe instruments explain plan capture with OpenTelemetry traces,
// metrics and structured JSON logs.
//
// It records two things: the admission decision taken for every statement
// (admit, present, full) and the outcome of each explain run that was
// admitted. It performs no database I/O itself.
package observe
