// Package dsn resolves and opens database connection strings for explain
// runs.
//
// A DSN may reference credentials instead of embedding them:
//
//   - Environment: postgres://app:${PGPASSWORD}@db:5432/orders
//   - Secret refs: postgres://app:secretref:file:/run/secrets/pg@db/orders
//
// ${VAR} references must be set; $$ emits a literal dollar sign. Secret refs
// have the form secretref:<provider>:<ref> and are resolved by the env and
// file providers, or any Provider registered with a Resolver.
//
// Redact masks the password of a DSN so it can be logged.
package dsn
