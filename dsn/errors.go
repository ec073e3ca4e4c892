package dsn

import "errors"

var (
	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("dsn: missing required environment variables")

	// ErrUnknownProvider indicates a secret ref names an unregistered provider.
	ErrUnknownProvider = errors.New("dsn: secret provider not registered")

	// ErrEmptySecret indicates a provider resolved a reference to "".
	ErrEmptySecret = errors.New("dsn: secret resolved to empty value")

	// ErrUnknownDriver indicates a driver name with no registered system.
	ErrUnknownDriver = errors.New("dsn: unknown driver")
)
