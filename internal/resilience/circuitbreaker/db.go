package circuitbreaker

import (
	"context"
	"database/sql"
)

// DBProbe pings the database through a breaker. The readiness endpoint uses
// it so that a down database answers quickly instead of piling up pings.
type DBProbe struct {
	cb *CircuitBreaker
	db *sql.DB
}

// NewDBProbe returns a probe using DBConfig.
func NewDBProbe(db *sql.DB) *DBProbe {
	return NewDBProbeWithConfig(db, DBConfig())
}

// NewDBProbeWithConfig returns a probe with a custom breaker configuration.
func NewDBProbeWithConfig(db *sql.DB, cfg Config) *DBProbe {
	return &DBProbe{cb: New(cfg), db: db}
}

// Ping checks the connection.
func (p *DBProbe) Ping(ctx context.Context) error {
	_, err := p.cb.Execute(func() (any, error) {
		return nil, p.db.PingContext(ctx)
	})
	return err
}

// IsOpen reports whether the breaker currently rejects pings.
func (p *DBProbe) IsOpen() bool { return p.cb.IsOpen() }
