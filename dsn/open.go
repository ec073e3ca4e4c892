package dsn

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	// Registered database/sql drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// System describes how to explain statements for a driver.
type System struct {
	// Name is the db.system value reported in telemetry.
	Name string

	// ExplainPrefix is prepended to statements to request a plan.
	ExplainPrefix string
}

var systems = map[string]System{
	"postgres": {Name: "postgresql", ExplainPrefix: "EXPLAIN "},
	"mysql":    {Name: "mysql", ExplainPrefix: "EXPLAIN "},
}

// Lookup returns the System for a database/sql driver name.
func Lookup(driver string) (System, error) {
	s, ok := systems[driver]
	if !ok {
		return System{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownDriver, driver, Drivers())
	}
	return s, nil
}

// Drivers returns the supported driver names.
func Drivers() []string {
	names := make([]string, 0, len(systems))
	for name := range systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open resolves dsn, opens it with driver and pings the database.
func Open(ctx context.Context, r *Resolver, driver, dsn string) (*sql.DB, error) {
	if _, err := Lookup(driver); err != nil {
		return nil, err
	}
	if r == nil {
		r = NewResolver()
	}

	resolved, err := r.Resolve(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("resolve dsn: %w", err)
	}

	db, err := sql.Open(driver, resolved)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", Redact(dsn), err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", Redact(dsn), err)
	}
	return db, nil
}
