package visit

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("visit not found")

// Repository stores the register. Rows are addressed by Visit.Row.
type Repository interface {
	List(ctx context.Context) ([]*Visit, error)
	Append(ctx context.Context, v *Visit) error
	Update(ctx context.Context, v *Visit) error
	Delete(ctx context.Context, row int) error
}
