package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleCleaner  Role = "cleaner"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleCleaner, RoleAdmin:
		return true
	}
	return false
}

// Profile is the user record every component reads the role from.
type Profile struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName string    `json:"first_name" gorm:"type:varchar(100)"`
	LastName  string    `json:"last_name" gorm:"type:varchar(100)"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(32)"`
	Address   string    `json:"address,omitempty"`
	Suburb    string    `json:"suburb,omitempty" gorm:"type:varchar(100)"`
	Postcode  string    `json:"postcode,omitempty" gorm:"type:varchar(10)"`
	State     string    `json:"state,omitempty" gorm:"type:varchar(10)"`
	Role      Role      `json:"role" gorm:"type:varchar(20);not null;default:'customer';index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// FullName joins first and last name, falling back to the email.
func (p *Profile) FullName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}
