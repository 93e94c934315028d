package entity

import (
	"fmt"
	"strings"
)

// Type is the kind of entity whose sections get embedded.
type Type string

const (
	// TypeJob is a job posting.
	TypeJob Type = "job"
	// TypeResume is a candidate résumé.
	TypeResume Type = "resume"
)

// UnknownID is used when the caller does not supply an entity id.
const UnknownID = "unknown"

// SectionField is the payload key every point carries with its section name.
const SectionField = "section"

// SectionExperience is the section task-based matching searches against.
const SectionExperience = "experience"

// Parse validates an entity type string (case-insensitive).
func Parse(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

// IsValid checks if the entity type is supported.
func (t Type) IsValid() bool {
	return t == TypeJob || t == TypeResume
}

// IDKey is the metadata key that carries the entity id ("job_id", "resume_id").
func (t Type) IDKey() string { return string(t) + "_id" }

// Collection is the vector collection holding this entity's sections.
func (t Type) Collection() string {
	if t == TypeJob {
		return "JobCollection"
	}
	return "ResumeCollection"
}

// IDFrom extracts the entity id from metadata, falling back to UnknownID.
func (t Type) IDFrom(metadata map[string]any) string {
	v, ok := metadata[t.IDKey()]
	if !ok || v == nil {
		return UnknownID
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return UnknownID
	}
	return s
}

// All returns every supported entity type.
func All() []Type { return []Type{TypeResume, TypeJob} }
