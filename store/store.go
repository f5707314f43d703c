package store

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/jask/smssensor/parser"
)

// SQLite backs the engine's persistence interface with a sqlite database.
type SQLite struct {
	db *sql.DB
}

func New(db *sql.DB) *SQLite { return &SQLite{db: db} }

// DB exposes the underlying handle for callers that manage migrations or
// seeding themselves.
func (s *SQLite) DB() *sql.DB { return s.db }

// scanner handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanNullDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDirection(s string) parser.Direction {
	switch s {
	case "credit":
		return parser.Credit
	case "income":
		return parser.Income
	default:
		return parser.Debit
	}
}
