package domain

import "time"

// Technician is the assignable field-worker record. It is created once,
// the first time a profile is saved with the Technician role, seeded from
// the profile's name and phone; specialty and availability are mutated
// independently afterwards.
type Technician struct {
	ID        string
	UserID    string
	Name      string
	Phone     string
	Specialty string
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultSpecialty is assigned when a technician record is first created.
const DefaultSpecialty = "General"
