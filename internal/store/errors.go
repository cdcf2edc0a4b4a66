package store

import (
	"database/sql"
	"errors"
	"time"
)

// Conditional writes report why they changed nothing with these errors.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyInHousehold = errors.New("user already belongs to a household")
	ErrHouseholdFull      = errors.New("household is full")
	ErrNetworkFull        = errors.New("network is full")
	ErrAlreadyLinked      = errors.New("household already linked to network")
	ErrAlreadyResolved    = errors.New("invitation already resolved")
)

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
