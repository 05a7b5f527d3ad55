// guardian/pkg/store/store.go

package store

import "time"

// Specification is a stored block of rule text plus optional metadata. The
// compiler never mutates it; replacing a specification invalidates whatever
// executable rules were built from it.
type Specification struct {
	Text        string    `json:"text"`
	Version     string    `json:"version,omitempty"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Store interface {
	SaveSpec(id string, spec Specification) error
	SaveAndPublishSpec(id string, spec Specification) error
	GetSpec(id string) (*Specification, error)
	DeleteSpec(id string) error
	ListSpecs() ([]string, error)
}
