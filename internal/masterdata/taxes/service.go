package taxes

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Tax, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, in CreateTaxInput) (Tax, error) {
	in, err := normalize(in)
	if err != nil {
		return Tax{}, err
	}
	return s.repo.Create(ctx, in)
}
