package dashboard

import (
	"context"
	"fmt"

	"github.com/bidan/registry/internal/domain/visit"
	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/pkg/caldate"
)

// Source supplies every stored visit and the clinic's current day.
// *visit.Service satisfies it.
type Source interface {
	AllVisits(ctx context.Context) ([]*visit.Visit, error)
	Today() caldate.Date
}

type Service struct {
	src Source
}

func NewService(src Source) *Service {
	return &Service{src: src}
}

// Report computes the dashboard for sel.
func (s *Service) Report(ctx context.Context, sel Selection, loc *locale.Localizer) (*Report, error) {
	visits, err := s.src.AllVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}
	return Compute(visits, sel, s.src.Today(), loc), nil
}
