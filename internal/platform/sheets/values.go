package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type valueRange struct {
	Range          string          `json:"range,omitempty"`
	MajorDimension string          `json:"majorDimension,omitempty"`
	Values         [][]interface{} `json:"values"`
}

// Values reads rng, e.g. "Sheet1!A2:I". Trailing empty cells are omitted by
// the API, so rows can be shorter than the range.
//
// Unauthenticated clients read with the API key and, when that fails and
// public fallbacks are enabled, from the opensheet mirror. The mirror
// ignores rng and returns every row below the header row.
func (c *Client) Values(ctx context.Context, rng string) ([][]string, error) {
	rows, err := c.values(ctx, rng)
	if err == nil || c.authenticated || !c.cfg.PublicFallbacks {
		return rows, err
	}

	c.logger.Warn().Err(err).Str("range", rng).Msg("sheets read failed, trying public mirror")
	rows, ferr := c.fallbackValues(ctx)
	if ferr != nil {
		return nil, fmt.Errorf("%w (mirror: %v)", err, ferr)
	}
	return rows, nil
}

func (c *Client) values(ctx context.Context, rng string) ([][]string, error) {
	var out valueRange
	req := c.rest.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": c.cfg.SpreadsheetID, "range": rng}).
		SetResult(&out).
		SetError(&googleError{})
	if !c.authenticated {
		if c.cfg.APIKey == "" {
			return nil, fmt.Errorf("sheets values: %w: no token or API key", ErrUnauthorized)
		}
		req.SetQueryParam("key", c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := req.Get("/{id}/values/{range}")
	c.observe("values", resp, start)
	if err := check("values", resp, err); err != nil {
		return nil, err
	}

	rows := make([][]string, len(out.Values))
	for i, r := range out.Values {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			rows[i][j] = cellString(v)
		}
	}
	return rows, nil
}

// Append adds row after the last row of the table found in rng.
func (c *Client) Append(ctx context.Context, rng string, row []string) error {
	if !c.authenticated {
		return fmt.Errorf("sheets append: %w", ErrUnauthorized)
	}

	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": c.cfg.SpreadsheetID, "range": rng}).
		SetQueryParams(map[string]string{
			"valueInputOption": "USER_ENTERED",
			"insertDataOption": "INSERT_ROWS",
		}).
		SetBody(valueRange{Values: [][]interface{}{toCells(row)}}).
		SetError(&googleError{}).
		Post("/{id}/values/{range}:append")
	c.observe("append", resp, start)
	return check("append", resp, err)
}

// Update overwrites rng, e.g. "Sheet1!A5:I5", with row.
func (c *Client) Update(ctx context.Context, rng string, row []string) error {
	if !c.authenticated {
		return fmt.Errorf("sheets update: %w", ErrUnauthorized)
	}

	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": c.cfg.SpreadsheetID, "range": rng}).
		SetQueryParam("valueInputOption", "USER_ENTERED").
		SetBody(valueRange{Range: rng, MajorDimension: "ROWS", Values: [][]interface{}{toCells(row)}}).
		SetError(&googleError{}).
		Put("/{id}/values/{range}")
	c.observe("update", resp, start)
	return check("update", resp, err)
}

type dimensionRange struct {
	SheetID    int64  `json:"sheetId"`
	Dimension  string `json:"dimension"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

type batchUpdate struct {
	Requests []map[string]interface{} `json:"requests"`
}

// DeleteRow removes the 1-based sheet row rowIndex. Rows below it move up.
func (c *Client) DeleteRow(ctx context.Context, rowIndex int) error {
	if !c.authenticated {
		return fmt.Errorf("sheets delete: %w", ErrUnauthorized)
	}
	if rowIndex < 1 {
		return fmt.Errorf("sheets delete: invalid row %d", rowIndex)
	}

	body := batchUpdate{Requests: []map[string]interface{}{{
		"deleteDimension": map[string]interface{}{
			"range": dimensionRange{
				SheetID:    c.cfg.SheetID,
				Dimension:  "ROWS",
				StartIndex: rowIndex - 1,
				EndIndex:   rowIndex,
			},
		},
	}}}

	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("id", c.cfg.SpreadsheetID).
		SetBody(body).
		SetError(&googleError{}).
		Post("/{id}:batchUpdate")
	c.observe("delete", resp, start)
	return check("delete", resp, err)
}

// fallbackValues reads the opensheet mirror, which answers with one JSON
// object per data row keyed by the header row. Cells keep the column order
// of the object.
func (c *Client) fallbackValues(ctx context.Context) ([][]string, error) {
	start := time.Now()
	resp, err := c.public.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": c.cfg.SpreadsheetID, "sheet": c.cfg.SheetName}).
		Get("/{id}/{sheet}")
	c.observe("fallback", resp, start)
	if err := check("fallback", resp, err); err != nil {
		return nil, err
	}
	return objectRows(resp.Body())
}

func objectRows(body []byte) ([][]string, error) {
	var objects []json.RawMessage
	if err := json.Unmarshal(body, &objects); err != nil {
		return nil, fmt.Errorf("decode mirror rows: %w", err)
	}

	rows := make([][]string, 0, len(objects))
	for i, obj := range objects {
		row, err := orderedValues(obj)
		if err != nil {
			return nil, fmt.Errorf("decode mirror row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// orderedValues returns the values of a JSON object in document order.
func orderedValues(obj []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var row []string
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		row = append(row, cellString(v))
	}
	return row, nil
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, s := range row {
		cells[i] = s
	}
	return cells
}
