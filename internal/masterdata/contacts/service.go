package contacts

import (
	"context"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Contact, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Contact, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the form and stores the contact. Blank optional fields
// are stored as NULL.
func (s *Service) Create(ctx context.Context, form ContactForm) (Contact, error) {
	if err := validate(form); err != nil {
		return Contact{}, err
	}
	return s.repo.Create(ctx, Contact{
		Name:         strings.TrimSpace(form.Name),
		Type:         form.Type,
		Email:        optional(form.Email),
		Mobile:       optional(form.Mobile),
		Address:      optional(form.Address),
		City:         optional(form.City),
		State:        optional(form.State),
		Pincode:      optional(form.Pincode),
		ProfileImage: optional(form.ProfileImage),
	})
}
