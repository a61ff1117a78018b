package models

import (
	"time"

	pstrings "sdnguard/pkg/platform/strings"
)

// EntityType is the coarse classification derived from a record's schema.
type EntityType string

const (
	EntityIndividual EntityType = "individual"
	EntityOrg        EntityType = "entity"
	EntityOther      EntityType = "other"
)

// EntityTypeForSchema maps provider schema names onto an EntityType.
func EntityTypeForSchema(schema string) EntityType {
	switch schema {
	case "Person":
		return EntityIndividual
	case "Organization", "Company", "LegalEntity":
		return EntityOrg
	default:
		return EntityOther
	}
}

// WatchlistRecord is one sanctioned individual or organization as published
// by the provider. Records are reference data and are never modified after
// parsing. Set-valued fields are deduplicated and never nil.
type WatchlistRecord struct {
	ID          string     `json:"id"`
	Schema      string     `json:"schema"`
	EntityType  EntityType `json:"entity_type"`
	Name        string     `json:"name"`
	Aliases     []string   `json:"aliases"`
	BirthDate   string     `json:"birth_date,omitempty"`
	Countries   []string   `json:"countries"`
	Addresses   []string   `json:"addresses"`
	Identifiers []string   `json:"identifiers"`
	Sanctions   []string   `json:"sanctions"`
	Phones      []string   `json:"phones"`
	Emails      []string   `json:"emails"`
	Dataset     string     `json:"dataset,omitempty"`
	FirstSeen   *time.Time `json:"first_seen,omitempty"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
	LastChange  *time.Time `json:"last_change,omitempty"`
}

// IsIndividual reports whether the record describes a natural person.
func (r WatchlistRecord) IsIndividual() bool {
	return r.EntityType == EntityIndividual
}

// AllNames returns the primary name followed by every alias, without duplicates.
func (r WatchlistRecord) AllNames() []string {
	names := make([]string, 0, len(r.Aliases)+1)
	names = append(names, r.Name)
	names = append(names, r.Aliases...)
	return pstrings.DedupeAndTrim(names)
}

// HasCountry reports whether the record is associated with the given country code.
func (r WatchlistRecord) HasCountry(code string) bool {
	return pstrings.ContainsFold(r.Countries, code)
}
