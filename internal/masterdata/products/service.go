package products

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Create validates the form and stores the product. Unknown tax ids surface
// as validation errors from the foreign key.
func (s *Service) Create(ctx context.Context, form ProductForm) (Product, error) {
	form, err := normalize(form)
	if err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, form)
}
