package pkguid

import "github.com/google/uuid"

// UUID generates dataset and correlation IDs.
//
// IDs are version 7 so that their string form sorts by creation time; when the
// v7 source fails a random v4 is returned instead of panicking.
type UUID struct {
	v7 func() (uuid.UUID, error)
}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{v7: uuid.NewV7}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	id, err := u.v7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Valid reports whether s is a canonical, hyphenated UUID string.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
