package visit

import (
	"context"
	"errors"
	"testing"
)

type fakeSheets struct {
	values    [][]string
	valuesErr error
	ranges    []string
	appended  [][]string
	updated   map[string][]string
	deleted   []int
}

func (f *fakeSheets) Values(_ context.Context, rng string) ([][]string, error) {
	f.ranges = append(f.ranges, rng)
	return f.values, f.valuesErr
}

func (f *fakeSheets) Append(_ context.Context, rng string, row []string) error {
	f.ranges = append(f.ranges, rng)
	f.appended = append(f.appended, row)
	return nil
}

func (f *fakeSheets) Update(_ context.Context, rng string, row []string) error {
	if f.updated == nil {
		f.updated = map[string][]string{}
	}
	f.updated[rng] = row
	return nil
}

func (f *fakeSheets) DeleteRow(_ context.Context, rowIndex int) error {
	f.deleted = append(f.deleted, rowIndex)
	return nil
}

func (f *fakeSheets) Range(cells string) string {
	return "Pasien!" + cells
}

func TestSheetsRepo_List(t *testing.T) {
	client := &fakeSheets{values: [][]string{
		{"R1", "26/12/25", "Siti"},
		{},
		{"R3", "2025-12-26", "Ani", "", "Jl. B", "3 tahun", "demam", "obat"},
	}}
	repo := NewSheetsRepo(client)

	visits, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.ranges[0] != "Pasien!A2:I" {
		t.Errorf("expected range Pasien!A2:I, got %s", client.ranges[0])
	}
	if len(visits) != 2 {
		t.Fatalf("expected blank row skipped, got %d visits", len(visits))
	}
	if visits[0].Row != 2 || visits[1].Row != 4 {
		t.Errorf("expected rows 2 and 4, got %d and %d", visits[0].Row, visits[1].Row)
	}
	if !visits[1].IsServed() {
		t.Error("expected row 4 served")
	}
}

func TestSheetsRepo_ListError(t *testing.T) {
	boom := errors.New("sheets: unavailable")
	repo := NewSheetsRepo(&fakeSheets{valuesErr: boom})

	if _, err := repo.List(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestSheetsRepo_Append(t *testing.T) {
	client := &fakeSheets{}
	repo := NewSheetsRepo(client)

	v := &Visit{RegistrationNumber: "R1", VisitDate: "2025-12-26", FullName: "Siti", Age: "2 tahun"}
	if err := repo.Append(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.ranges[0] != "Pasien!A:I" {
		t.Errorf("expected append range Pasien!A:I, got %s", client.ranges[0])
	}
	if len(client.appended) != 1 || len(client.appended[0]) != Columns {
		t.Fatalf("expected one %d-cell row, got %v", Columns, client.appended)
	}
	if client.appended[0][2] != "Siti" {
		t.Errorf("expected name in column C, got %v", client.appended[0])
	}
}

func TestSheetsRepo_Update(t *testing.T) {
	client := &fakeSheets{}
	repo := NewSheetsRepo(client)

	if err := repo.Update(context.Background(), &Visit{Row: 5, Therapy: "ANC"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row, ok := client.updated["Pasien!A5:I5"]
	if !ok {
		t.Fatalf("expected update of Pasien!A5:I5, got %v", client.updated)
	}
	if row[7] != "ANC" {
		t.Errorf("expected therapy in column H, got %v", row)
	}

	if err := repo.Update(context.Background(), &Visit{Row: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for header row, got %v", err)
	}
}

func TestSheetsRepo_Delete(t *testing.T) {
	client := &fakeSheets{}
	repo := NewSheetsRepo(client)

	if err := repo.Delete(context.Background(), 6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.deleted) != 1 || client.deleted[0] != 6 {
		t.Errorf("expected row 6 deleted, got %v", client.deleted)
	}
	if err := repo.Delete(context.Background(), 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
