package utils

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ToNullString converts a *string to a pgtype.Text.
// A nil pointer is considered invalid (NULL).
func ToNullString(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{
		String: *s,
		Valid:  true,
	}
}

// FromNullString converts a pgtype.Text to a *string. NULL becomes nil.
func FromNullString(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// ToText converts a string to a pgtype.Text.
// An empty string is considered invalid (NULL).
func ToText(s string) pgtype.Text {
	return pgtype.Text{
		String: s,
		Valid:  s != "",
	}
}

// ToTimestamp converts a naive *time.Time to a pgtype.Timestamp
// (timestamp without time zone).
func ToTimestamp(t *time.Time) pgtype.Timestamp {
	if t == nil {
		return pgtype.Timestamp{Valid: false}
	}
	return pgtype.Timestamp{Time: *t, Valid: true}
}

// FromTimestamp converts a pgtype.Timestamp to a *time.Time. NULL becomes nil.
func FromTimestamp(ts pgtype.Timestamp) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

// ToSeconds converts an elapsed duration to a whole-second pgtype.Int8.
func ToSeconds(d *time.Duration) pgtype.Int8 {
	if d == nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: int64(*d / time.Second), Valid: true}
}

// FromSeconds converts a pgtype.Int8 of seconds to a *time.Duration.
func FromSeconds(n pgtype.Int8) *time.Duration {
	if !n.Valid {
		return nil
	}
	d := time.Duration(n.Int64) * time.Second
	return &d
}
