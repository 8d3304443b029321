package models

import "time"

// StaffMember can be assigned pickups and deliveries.
type StaffMember struct {
	ID       int       `json:"id" validate:"gt=0"`
	Name     string    `json:"name" validate:"required"`
	Role     string    `json:"role,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Email    string    `json:"email,omitempty" validate:"omitempty,email"`
	Active   bool      `json:"active"`
	JoinedAt time.Time `json:"joinedAt"`
}

func (s *StaffMember) GetID() int   { return s.ID }
func (s *StaffMember) SetID(id int) { s.ID = id }
