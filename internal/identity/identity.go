// Package identity models match identifiers as a tagged variant so the
// provisional-vs-persisted branch is decided once, at the point an id is
// first observed, instead of by repeated prefix parsing.
package identity

import "strings"

// ProvisionalPrefix marks a match reference minted before any durable
// record exists server-side.
const ProvisionalPrefix = "PEND-"

type Kind uint8

const (
	KindNone Kind = iota
	KindProvisional
	KindPersisted
)

// MatchID is comparable; two ids are equal iff kind and value match.
type MatchID struct {
	kind  Kind
	value string
}

// Parse classifies a raw identifier. An empty string yields the zero id.
func Parse(raw string) MatchID {
	if raw == "" {
		return MatchID{}
	}
	if strings.HasPrefix(raw, ProvisionalPrefix) {
		return MatchID{kind: KindProvisional, value: raw}
	}
	return MatchID{kind: KindPersisted, value: raw}
}

func (id MatchID) IsZero() bool      { return id.kind == KindNone }
func (id MatchID) Provisional() bool { return id.kind == KindProvisional }
func (id MatchID) Persisted() bool   { return id.kind == KindPersisted }
func (id MatchID) String() string    { return id.value }

func (id MatchID) MarshalText() ([]byte, error) { return []byte(id.value), nil }

func (id *MatchID) UnmarshalText(b []byte) error {
	*id = Parse(string(b))
	return nil
}
