package person

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	persons Repository
}

func NewService(persons Repository) *Service {
	return &Service{persons: persons}
}

func (s *Service) GetPerson(ctx context.Context, id uuid.UUID) (*Person, error) {
	return s.persons.GetByID(ctx, id)
}

func (s *Service) SavePerson(ctx context.Context, p *Person) error {
	if p.FirstName == "" && p.LastName == "" {
		return fmt.Errorf("person name is required")
	}
	if p.ID == uuid.Nil {
		return s.persons.Create(ctx, p)
	}
	return s.persons.Update(ctx, p)
}

// MergePersons consolidates the duplicate person into the lead: empty lead
// fields take the duplicate's value, populated lead fields win. Callers are
// responsible for repointing records that reference the duplicate.
func (s *Service) MergePersons(ctx context.Context, lead, duplicate *Person) error {
	if lead.ID == duplicate.ID {
		return nil
	}

	if lead.Sex == nil {
		lead.Sex = duplicate.Sex
	}
	if lead.BirthdateDD == nil && lead.BirthdateMM == nil && lead.BirthdateYYYY == nil {
		lead.BirthdateDD = duplicate.BirthdateDD
		lead.BirthdateMM = duplicate.BirthdateMM
		lead.BirthdateYYYY = duplicate.BirthdateYYYY
	}
	if lead.PresentCondition == nil {
		lead.PresentCondition = duplicate.PresentCondition
		lead.DeathDate = duplicate.DeathDate
	}
	if lead.Phone == nil {
		lead.Phone = duplicate.Phone
	}
	if lead.Email == nil {
		lead.Email = duplicate.Email
	}
	if lead.Address == nil {
		lead.Address = duplicate.Address
	}

	return s.persons.Update(ctx, lead)
}
