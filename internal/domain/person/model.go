// Package person holds the demographic identity shared across cases and
// contacts. A case never owns a person exclusively.
package person

import (
	"time"

	"github.com/google/uuid"
)

type Sex string

const (
	SexMale    Sex = "MALE"
	SexFemale  Sex = "FEMALE"
	SexOther   Sex = "OTHER"
	SexUnknown Sex = "UNKNOWN"
)

type PresentCondition string

const (
	ConditionAlive  PresentCondition = "ALIVE"
	ConditionDead   PresentCondition = "DEAD"
	ConditionBuried PresentCondition = "BURIED"
)

type Person struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Sex       *Sex      `db:"sex" json:"sex,omitempty"`

	// Birth date parts are individually optional; partial dates are common
	// in field data entry.
	BirthdateDD   *int `db:"birthdate_dd" json:"birthdate_dd,omitempty"`
	BirthdateMM   *int `db:"birthdate_mm" json:"birthdate_mm,omitempty"`
	BirthdateYYYY *int `db:"birthdate_yyyy" json:"birthdate_yyyy,omitempty"`

	PresentCondition *PresentCondition `db:"present_condition" json:"present_condition,omitempty"`
	DeathDate        *time.Time        `db:"death_date" json:"death_date,omitempty"`

	Phone   *string `db:"phone" json:"phone,omitempty"`
	Email   *string `db:"email" json:"email,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName concatenates first and last name with a single space; it is the
// string the duplicate matcher scores.
func (p *Person) FullName() string {
	return p.FirstName + " " + p.LastName
}
