package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Options configures the MySQL connection and its pool.  Zero values fall
// back to defaults sized for a single service instance, so callers only
// set what they need to override.
type Options struct {
	User string
	Pass string // empty password allowed
	Host string
	Port string
	Name string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 25
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = o.MaxOpenConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = 30 * time.Minute
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 5 * time.Second
	}
	return o
}

// dsn renders the driver connection string.  parseTime maps DATETIME
// columns onto time.Time, and loc=UTC keeps the audit-trail timestamps
// (logged_in_at, logged_out_at, token expiries) comparable no matter what
// timezone the database server runs in.
func (o Options) dsn() string {
	auth := o.User
	if o.Pass != "" {
		auth = o.User + ":" + o.Pass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, o.Host, o.Port, o.Name)
}

// Open connects to MySQL, applies the pool limits and verifies the
// connection before the server starts taking traffic.  Sessions, reset
// tokens and the catalog all share this one pool.
func Open(o Options) (*sql.DB, error) {
	o = o.withDefaults()

	db, err := sql.Open("mysql", o.dsn())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(o.MaxOpenConns)
	db.SetMaxIdleConns(o.MaxIdleConns)
	db.SetConnMaxLifetime(o.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), o.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
