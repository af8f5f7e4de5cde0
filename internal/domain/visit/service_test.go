package visit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bidan/registry/pkg/caldate"
)

// -- Mock Repository --

// mockRepo behaves like the sheet: rows start at 2 and shift up on delete.
type mockRepo struct {
	mu      sync.Mutex
	rows    []*Visit
	lists   int
	listErr error
	err     error
}

func newMockRepo(visits ...*Visit) *mockRepo {
	m := &mockRepo{}
	for _, v := range visits {
		m.rows = append(m.rows, v.clone())
	}
	m.renumber()
	return m
}

func (m *mockRepo) renumber() {
	for i, v := range m.rows {
		v.Row = FirstDataRow + i
	}
}

func (m *mockRepo) List(_ context.Context) ([]*Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return cloneAll(m.rows), nil
}

func (m *mockRepo) Append(_ context.Context, v *Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, v.clone())
	m.renumber()
	return nil
}

func (m *mockRepo) Update(_ context.Context, v *Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	i := v.Row - FirstDataRow
	if i < 0 || i >= len(m.rows) {
		return ErrNotFound
	}
	m.rows[i] = v.clone()
	return nil
}

func (m *mockRepo) Delete(_ context.Context, row int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	i := row - FirstDataRow
	if i < 0 || i >= len(m.rows) {
		return ErrNotFound
	}
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	m.renumber()
	return nil
}

type countingRecorder struct {
	ops []string
}

func (r *countingRecorder) VisitWritten(op string) {
	r.ops = append(r.ops, op)
}

type change struct {
	op  string
	row int
}

type changeLog struct {
	changes []change
}

func (l *changeLog) VisitChanged(op string, row int) {
	l.changes = append(l.changes, change{op, row})
}

var wib = time.FixedZone("WIB", 7*3600)

// 2025-12-26 08:30 WIB, a Friday.
var fixedNow = time.Date(2025, 12, 26, 1, 30, 0, 0, time.UTC)

func seedVisits() []*Visit {
	return []*Visit{
		{RegistrationNumber: "REG-001", VisitDate: "26/12/25", FullName: "Siti Aminah", Address: "Jl. Melati 1", Age: "28 tahun", Complaint: "kontrol hamil", Therapy: "ANC"},
		{RegistrationNumber: "REG-002", VisitDate: "2025-12-26", FullName: "Dewi Lestari", Address: "Jl. Mawar 2", Age: "9 bulan", Complaint: "demam"},
		{RegistrationNumber: "REG-003", VisitDate: "2025-12-25T09:00:00", FullName: "Rina", Address: "Jl. Kenanga", Age: "35 tahun", Complaint: "KB suntik", Therapy: "KB 3 bulan"},
		{RegistrationNumber: "ABC-104", VisitDate: "26 Desember 2025", FullName: "Nur Hasanah", Address: "Desa Sukamaju", Age: "4", Complaint: "batuk"},
		{RegistrationNumber: "REG-005", VisitDate: "belum diisi", FullName: "Tanpa Tanggal", Address: "-", Age: "50 tahun"},
	}
}

func newTestService(visits ...*Visit) (*Service, *mockRepo) {
	repo := newMockRepo(visits...)
	svc := NewService(repo, wib)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc, repo
}

func TestService_Today(t *testing.T) {
	svc, _ := newTestService()
	if got := svc.Today(); got != (caldate.Date{Year: 2025, Month: 12, Day: 26}) {
		t.Errorf("expected 2025-12-26, got %v", got)
	}

	utc := NewService(newMockRepo(), nil)
	utc.SetClock(func() time.Time { return time.Date(2025, 12, 26, 20, 0, 0, 0, time.UTC) })
	if got := utc.Today(); got.Day != 26 {
		t.Errorf("expected UTC day 26, got %v", got)
	}
}

func TestService_CreateVisit(t *testing.T) {
	svc, repo := newTestService()
	rec := &countingRecorder{}
	svc.SetRecorder(rec)

	v := &Visit{
		RegistrationNumber: "  REG-010 ",
		VisitDate:          "27/12/25",
		FullName:           " Ani ",
		Address:            "Jl. Anggrek",
		Age:                "25 thn",
		Row:                99,
	}
	if err := svc.CreateVisit(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(repo.rows))
	}
	got := repo.rows[0]
	if got.RegistrationNumber != "REG-010" || got.FullName != "Ani" {
		t.Errorf("expected trimmed fields, got %q %q", got.RegistrationNumber, got.FullName)
	}
	if got.VisitDate != "2025-12-27" {
		t.Errorf("expected ISO date, got %q", got.VisitDate)
	}
	if got.Age != "25 tahun" {
		t.Errorf("expected cleaned age, got %q", got.Age)
	}
	if len(rec.ops) != 1 || rec.ops[0] != "created" {
		t.Errorf("expected created recorded, got %v", rec.ops)
	}
}

func TestService_CreateVisit_DefaultsToToday(t *testing.T) {
	svc, repo := newTestService()
	v := &Visit{RegistrationNumber: "R1", FullName: "Ani", Address: "Jl. A", Age: "3"}
	if err := svc.CreateVisit(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rows[0].VisitDate != "2025-12-26" {
		t.Errorf("expected today, got %q", repo.rows[0].VisitDate)
	}
	if repo.rows[0].Age != "3 bulan" {
		t.Errorf("expected bare number cleaned to months, got %q", repo.rows[0].Age)
	}
}

func TestService_CreateVisit_Validation(t *testing.T) {
	svc, repo := newTestService()
	v := &Visit{VisitDate: "31/02/2025", FullName: "Ani"}
	err := svc.CreateVisit(context.Background(), v)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"registration_number", "address", "age", "visit_date"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("expected %s in %v", field, verr.Fields)
		}
	}
	if _, ok := verr.Fields["full_name"]; ok {
		t.Error("full_name should be valid")
	}
	if len(repo.rows) != 0 {
		t.Error("expected nothing appended")
	}
}

func TestService_CreateVisit_RepoError(t *testing.T) {
	svc, repo := newTestService()
	repo.err = errors.New("quota exceeded")
	rec := &countingRecorder{}
	svc.SetRecorder(rec)

	v := &Visit{RegistrationNumber: "R1", FullName: "Ani", Address: "Jl. A", Age: "30"}
	if err := svc.CreateVisit(context.Background(), v); err == nil {
		t.Fatal("expected error")
	}
	if len(rec.ops) != 0 {
		t.Errorf("expected no write recorded, got %v", rec.ops)
	}
}

func TestService_GetVisit(t *testing.T) {
	svc, _ := newTestService(seedVisits()...)

	v, err := svc.GetVisit(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.RegistrationNumber != "REG-002" {
		t.Errorf("expected REG-002 at row 3, got %s", v.RegistrationNumber)
	}

	if _, err := svc.GetVisit(context.Background(), 100); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UpdateVisit(t *testing.T) {
	svc, repo := newTestService(seedVisits()...)

	v := &Visit{Row: 3, RegistrationNumber: "REG-002", VisitDate: "2025-12-26", FullName: "Dewi L.", Address: "Jl. Mawar 2", Age: "10 bln"}
	if err := svc.UpdateVisit(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rows[1].FullName != "Dewi L." || repo.rows[1].Age != "10 bulan" {
		t.Errorf("unexpected row: %+v", repo.rows[1])
	}

	missing := &Visit{Row: 50, RegistrationNumber: "X", FullName: "X", Address: "X", Age: "1"}
	if err := svc.UpdateVisit(context.Background(), missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_DeleteVisit_ShiftsRows(t *testing.T) {
	svc, _ := newTestService(seedVisits()...)

	if err := svc.DeleteVisit(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := svc.GetVisit(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.RegistrationNumber != "REG-002" {
		t.Errorf("expected REG-002 to move up to row 2, got %s", v.RegistrationNumber)
	}
	if err := svc.DeleteVisit(context.Background(), 40); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ListVisits(t *testing.T) {
	svc, _ := newTestService(seedVisits()...)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"REG-001", "REG-002", "REG-003", "ABC-104", "REG-005"}},
		{"name any case", Filter{Query: "SITI"}, []string{"REG-001"}},
		{"registration", Filter{Query: "abc"}, []string{"ABC-104"}},
		{"complaint", Filter{Query: "demam"}, []string{"REG-002"}},
		{"address", Filter{Query: "sukamaju"}, []string{"ABC-104"}},
		{"therapy", Filter{Query: "kb 3"}, []string{"REG-003"}},
		{"today only", Filter{TodayOnly: true}, []string{"REG-001", "REG-002", "ABC-104"}},
		{"today and query", Filter{TodayOnly: true, Query: "reg"}, []string{"REG-001", "REG-002"}},
		{"no match", Filter{Query: "zzz"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListVisits(ctx, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d visits, got %d", len(tt.want), len(got))
			}
			for i, v := range got {
				if v.RegistrationNumber != tt.want[i] {
					t.Errorf("[%d] expected %s, got %s", i, tt.want[i], v.RegistrationNumber)
				}
			}
		})
	}
}

func TestService_SearchByRegistration(t *testing.T) {
	svc, _ := newTestService(seedVisits()...)
	ctx := context.Background()

	got, err := svc.SearchByRegistration(ctx, "reg-00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 matches, got %d", len(got))
	}

	// name is not searched
	got, _ = svc.SearchByRegistration(ctx, "siti")
	if len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}

	if _, err := svc.SearchByRegistration(ctx, "  "); !errors.Is(err, ErrEmptySearch) {
		t.Errorf("expected ErrEmptySearch, got %v", err)
	}
}

func TestService_ServiceStatus(t *testing.T) {
	svc, _ := newTestService(seedVisits()...)
	ctx := context.Background()

	rep, err := svc.ServiceStatus(ctx, StatusFilter{Show: ShowAll})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Total != 3 || rep.Served != 1 || rep.NotServed != 2 {
		t.Errorf("unexpected counters: total=%d served=%d not=%d", rep.Total, rep.Served, rep.NotServed)
	}
	if len(rep.Visits) != 3 {
		t.Errorf("expected 3 visits, got %d", len(rep.Visits))
	}

	rep, _ = svc.ServiceStatus(ctx, StatusFilter{Show: ShowNotServed})
	if len(rep.Visits) != 2 || rep.Total != 3 {
		t.Errorf("expected 2 of 3 visits, got %d of %d", len(rep.Visits), rep.Total)
	}

	rep, _ = svc.ServiceStatus(ctx, StatusFilter{Show: ShowServed, Query: "siti"})
	if len(rep.Visits) != 1 || rep.Visits[0].RegistrationNumber != "REG-001" {
		t.Errorf("expected REG-001, got %+v", rep.Visits)
	}

	// address is not searched on this screen
	rep, _ = svc.ServiceStatus(ctx, StatusFilter{Query: "sukamaju"})
	if len(rep.Visits) != 0 {
		t.Errorf("expected no visits, got %d", len(rep.Visits))
	}
}

func TestService_MarkServed(t *testing.T) {
	svc, repo := newTestService(seedVisits()...)
	rec := &countingRecorder{}
	svc.SetRecorder(rec)
	ctx := context.Background()

	v, err := svc.MarkServed(ctx, 3, "  Paracetamol sirup ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Therapy != "Paracetamol sirup" {
		t.Errorf("expected trimmed therapy, got %q", v.Therapy)
	}
	if !repo.rows[1].IsServed() {
		t.Error("expected row 3 served in store")
	}
	if repo.rows[1].Complaint != "demam" {
		t.Error("expected the other columns written back unchanged")
	}
	if len(rec.ops) != 1 || rec.ops[0] != "served" {
		t.Errorf("expected served recorded, got %v", rec.ops)
	}

	if _, err := svc.MarkServed(ctx, 3, "   "); !errors.Is(err, ErrTherapyRequired) {
		t.Errorf("expected ErrTherapyRequired, got %v", err)
	}
	if _, err := svc.MarkServed(ctx, 60, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UnservedAndPending(t *testing.T) {
	svc, _ := newTestService(seedVisits()...)
	ctx := context.Background()

	visits, err := svc.Unserved(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visits) != 2 {
		t.Fatalf("expected 2 unserved, got %d", len(visits))
	}

	pending, err := svc.Pending(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 || pending[0].FullName != "Dewi Lestari" || pending[1].Row != 5 {
		t.Errorf("unexpected pending: %+v", pending)
	}
}

func TestService_ListError(t *testing.T) {
	svc, repo := newTestService(seedVisits()...)
	repo.listErr = errors.New("sheet unavailable")

	if _, err := svc.ListVisits(context.Background(), Filter{}); err == nil {
		t.Error("expected error from ListVisits")
	}
	if _, err := svc.ServiceStatus(context.Background(), StatusFilter{}); err == nil {
		t.Error("expected error from ServiceStatus")
	}
	if _, err := svc.Pending(context.Background()); err == nil {
		t.Error("expected error from Pending")
	}
}

func TestService_ListenersSeeWrites(t *testing.T) {
	svc, _ := newTestService(seedVisits()...)
	log := &changeLog{}
	svc.AddListener(log)
	ctx := context.Background()

	if _, err := svc.MarkServed(ctx, 3, "Paracetamol"); err != nil {
		t.Fatalf("mark served: %v", err)
	}
	if err := svc.DeleteVisit(ctx, 4); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.MarkServed(ctx, 3, " "); err == nil {
		t.Fatal("expected an error for empty therapy")
	}

	want := []change{{"served", 3}, {"deleted", 4}}
	if len(log.changes) != len(want) {
		t.Fatalf("expected %v, got %v", want, log.changes)
	}
	for i := range want {
		if log.changes[i] != want[i] {
			t.Errorf("change %d: expected %v, got %v", i, want[i], log.changes[i])
		}
	}
}

func TestService_AppendRowKeepsText(t *testing.T) {
	svc, repo := newTestService()
	log := &changeLog{}
	svc.AddListener(log)

	cells := []string{"SBX-0001", "26/12/25", " Siti ", "", "Jl. Melati", "4", "demam", "", ""}
	if err := svc.AppendRow(context.Background(), cells); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := repo.rows[0]
	if got.VisitDate != "26/12/25" || got.Age != "4" || got.FullName != " Siti " {
		t.Errorf("expected cells stored as entered, got %+v", got)
	}
	if len(log.changes) != 1 || log.changes[0].op != "created" {
		t.Errorf("expected one created change, got %v", log.changes)
	}
}
