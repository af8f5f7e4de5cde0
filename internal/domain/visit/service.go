package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bidan/registry/internal/platform/reminder"
	"github.com/bidan/registry/pkg/caldate"
)

var (
	ErrEmptySearch     = errors.New("search term is required")
	ErrTherapyRequired = errors.New("therapy is required to mark a visit served")
)

// WriteRecorder counts successful writes by operation.
type WriteRecorder interface {
	VisitWritten(op string)
}

// ChangeListener is told about every successful write.
type ChangeListener interface {
	VisitChanged(op string, row int)
}

type Service struct {
	repo      Repository
	loc       *time.Location
	now       func() time.Time
	recorder  WriteRecorder
	listeners []ChangeListener
}

// NewService creates the visit service. loc decides which calendar day is
// "today"; nil means UTC.
func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

// SetRecorder attaches an optional write recorder.
func (s *Service) SetRecorder(r WriteRecorder) {
	s.recorder = r
}

// AddListener registers l for write notifications.
func (s *Service) AddListener(l ChangeListener) {
	s.listeners = append(s.listeners, l)
}

// SetClock replaces the wall clock.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Location returns the clinic time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current calendar day in the clinic time zone.
func (s *Service) Today() caldate.Date {
	return caldate.Today(s.now(), s.loc)
}

func (s *Service) isToday(today caldate.Date) func(*Visit) bool {
	return func(v *Visit) bool {
		d, ok := v.Date()
		return ok && caldate.SameDay(d, today)
	}
}

func (s *Service) written(op string, row int) {
	if s.recorder != nil {
		s.recorder.VisitWritten(op)
	}
	for _, l := range s.listeners {
		l.VisitChanged(op, row)
	}
}

func (s *Service) CreateVisit(ctx context.Context, v *Visit) error {
	v.normalize(s.Today())
	if err := v.Validate(); err != nil {
		return err
	}
	v.Row = 0
	if err := s.repo.Append(ctx, v); err != nil {
		return err
	}
	s.written("created", v.Row)
	return nil
}

// AppendRow stores cells, in column order A to I, as entered: no trimming,
// cleaning or validation. It serves seeding and bulk imports, where the
// original text is kept for the normalisers to read.
func (s *Service) AppendRow(ctx context.Context, cells []string) error {
	v := FromRow(0, cells)
	if err := s.repo.Append(ctx, v); err != nil {
		return err
	}
	s.written("created", v.Row)
	return nil
}

// AllVisits returns the whole register in row order.
func (s *Service) AllVisits(ctx context.Context) ([]*Visit, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetVisit(ctx context.Context, row int) (*Visit, error) {
	visits, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range visits {
		if v.Row == row {
			return v, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Service) UpdateVisit(ctx context.Context, v *Visit) error {
	if _, err := s.GetVisit(ctx, v.Row); err != nil {
		return err
	}
	v.normalize(s.Today())
	if err := v.Validate(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, v); err != nil {
		return err
	}
	s.written("updated", v.Row)
	return nil
}

func (s *Service) DeleteVisit(ctx context.Context, row int) error {
	if _, err := s.GetVisit(ctx, row); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, row); err != nil {
		return err
	}
	s.written("deleted", row)
	return nil
}

// ListVisits returns the visits matching f in row order.
func (s *Service) ListVisits(ctx context.Context, f Filter) ([]*Visit, error) {
	visits, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	term := foldKey(f.Query)
	today := s.isToday(s.Today())
	out := make([]*Visit, 0, len(visits))
	for _, v := range visits {
		if f.match(v, term, today) {
			out = append(out, v)
		}
	}
	return out, nil
}

// SearchByRegistration returns visits whose registration number contains
// term.
func (s *Service) SearchByRegistration(ctx context.Context, term string) ([]*Visit, error) {
	key := foldKey(term)
	if key == "" {
		return nil, ErrEmptySearch
	}
	visits, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Visit
	for _, v := range visits {
		if strings.Contains(foldKey(v.RegistrationNumber), key) {
			out = append(out, v)
		}
	}
	return out, nil
}

// StatusReport is today's service status. The counters cover every visit
// of the day; Visits is narrowed by the filter.
type StatusReport struct {
	Date      caldate.Date `json:"-"`
	Total     int          `json:"total"`
	Served    int          `json:"served"`
	NotServed int          `json:"not_served"`
	Visits    []*Visit     `json:"-"`
}

func (s *Service) todays(ctx context.Context) ([]*Visit, caldate.Date, error) {
	visits, err := s.repo.List(ctx)
	if err != nil {
		return nil, caldate.Date{}, err
	}
	today := s.Today()
	isToday := s.isToday(today)
	out := make([]*Visit, 0)
	for _, v := range visits {
		if isToday(v) {
			out = append(out, v)
		}
	}
	return out, today, nil
}

func (s *Service) ServiceStatus(ctx context.Context, f StatusFilter) (*StatusReport, error) {
	visits, today, err := s.todays(ctx)
	if err != nil {
		return nil, err
	}
	rep := &StatusReport{Date: today, Total: len(visits), Visits: make([]*Visit, 0, len(visits))}
	term := foldKey(f.Query)
	for _, v := range visits {
		if v.IsServed() {
			rep.Served++
		} else {
			rep.NotServed++
		}
		if f.match(v, term) {
			rep.Visits = append(rep.Visits, v)
		}
	}
	return rep, nil
}

// MarkServed records therapy on the visit at row and writes the whole row
// back.
func (s *Service) MarkServed(ctx context.Context, row int, therapy string) (*Visit, error) {
	therapy = strings.TrimSpace(therapy)
	if therapy == "" {
		return nil, ErrTherapyRequired
	}
	v, err := s.GetVisit(ctx, row)
	if err != nil {
		return nil, err
	}
	v.Therapy = therapy
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("mark row %d served: %w", row, err)
	}
	s.written("served", row)
	return v, nil
}

// Unserved returns today's visits without therapy.
func (s *Service) Unserved(ctx context.Context) ([]*Visit, error) {
	visits, _, err := s.todays(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Visit, 0, len(visits))
	for _, v := range visits {
		if !v.IsServed() {
			out = append(out, v)
		}
	}
	return out, nil
}

// Pending implements reminder.Source.
func (s *Service) Pending(ctx context.Context) ([]reminder.Pending, error) {
	visits, err := s.Unserved(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]reminder.Pending, 0, len(visits))
	for _, v := range visits {
		out = append(out, reminder.Pending{
			Row:                v.Row,
			RegistrationNumber: v.RegistrationNumber,
			FullName:           v.FullName,
		})
	}
	return out, nil
}
