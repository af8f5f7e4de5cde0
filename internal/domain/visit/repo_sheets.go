package visit

import (
	"context"
	"fmt"
)

// SheetsClient is the slice of the spreadsheet client the register uses.
type SheetsClient interface {
	Values(ctx context.Context, rng string) ([][]string, error)
	Append(ctx context.Context, rng string, row []string) error
	Update(ctx context.Context, rng string, row []string) error
	DeleteRow(ctx context.Context, rowIndex int) error
	Range(cells string) string
}

type repoSheets struct {
	client SheetsClient
}

// NewSheetsRepo stores visits in a spreadsheet tab, one visit per row from
// row 2. Deleting a row shifts every later row up by one, so row numbers
// are only stable until the next delete.
func NewSheetsRepo(client SheetsClient) Repository {
	return &repoSheets{client: client}
}

func (r *repoSheets) List(ctx context.Context) ([]*Visit, error) {
	rows, err := r.client.Values(ctx, r.client.Range(fmt.Sprintf("A%d:I", FirstDataRow)))
	if err != nil {
		return nil, fmt.Errorf("read register: %w", err)
	}
	visits := make([]*Visit, 0, len(rows))
	for i, cells := range rows {
		v := FromRow(FirstDataRow+i, cells)
		if v.Blank() {
			continue
		}
		visits = append(visits, v)
	}
	return visits, nil
}

func (r *repoSheets) Append(ctx context.Context, v *Visit) error {
	if err := r.client.Append(ctx, r.client.Range("A:I"), v.Cells()); err != nil {
		return fmt.Errorf("append visit: %w", err)
	}
	return nil
}

func (r *repoSheets) Update(ctx context.Context, v *Visit) error {
	if v.Row < FirstDataRow {
		return ErrNotFound
	}
	rng := r.client.Range(fmt.Sprintf("A%d:I%d", v.Row, v.Row))
	if err := r.client.Update(ctx, rng, v.Cells()); err != nil {
		return fmt.Errorf("update row %d: %w", v.Row, err)
	}
	return nil
}

func (r *repoSheets) Delete(ctx context.Context, row int) error {
	if row < FirstDataRow {
		return ErrNotFound
	}
	if err := r.client.DeleteRow(ctx, row); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	return nil
}
