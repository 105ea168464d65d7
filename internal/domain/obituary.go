package domain

import "time"

// Card is the raw, adapter-local form of one listing-page entry. It only
// lives inside a single collection pass and is never persisted.
type Card struct {
	Name        string
	RawDate     string
	RawLocation string
	FuneralHome string
	DetailURL   string
	Description string
	ImageURL    string
}

// Obituary is the canonical record produced by an adapter's Normalize.
// DateOfBirth is the zero time when unknown; Age 0 means unknown, never
// newborn.
type Obituary struct {
	Name         string
	DateOfBirth  time.Time
	DateOfDeath  time.Time
	Age          int
	FuneralHome  string
	Location     string
	City         string
	ImageURL     string
	Description  string
	SourceURL    string
	SourceDomain string
	SourceType   string
	Provenance   string
}

// Status enumerates the lifecycle of a persisted obituary.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
)

// PersistedObituary is the stored entity. Rows are never deleted by the
// pipeline: suppression sets SuppressedAt instead.
type PersistedObituary struct {
	ID           int64
	Obituary
	Status       Status
	SuppressedAt *time.Time
	CreatedAt    time.Time
}
