package reminder

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidan/registry/internal/platform/locale"
)

type recorded struct {
	count int
	err   error
	calls int
}

func (r *recorded) ReminderRun(unserved int, err error) {
	r.count, r.err = unserved, err
	r.calls++
}

func newReminder(t *testing.T, src Source, rec Recorder, buf *bytes.Buffer) *Reminder {
	t.Helper()
	cat, err := locale.Load("id")
	require.NoError(t, err)
	return New(src, cat.For("id"), rec, zerolog.New(buf))
}

func TestRun_Unserved(t *testing.T) {
	var buf bytes.Buffer
	rec := &recorded{}
	src := SourceFunc(func(ctx context.Context) ([]Pending, error) {
		return []Pending{
			{Row: 2, RegistrationNumber: "001", FullName: "Siti"},
			{Row: 3, RegistrationNumber: "002", FullName: "  "},
		}, nil
	})

	res, err := newReminder(t, src, rec, &buf).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"Siti", "Pasien"}, res.Names)
	assert.Equal(t, "Pengingat: 2 pasien belum dilayani", res.Message)
	assert.Equal(t, 2, rec.count)
	assert.Contains(t, buf.String(), `"patients":"Siti, Pasien"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestRun_NoneUnserved(t *testing.T) {
	var buf bytes.Buffer
	src := SourceFunc(func(ctx context.Context) ([]Pending, error) { return nil, nil })

	res, err := newReminder(t, src, nil, &buf).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.Count)
	assert.Empty(t, res.Names)
	assert.Equal(t, "Tidak ada pasien yang belum dilayani hari ini.", res.Message)
}

func TestRun_SourceError(t *testing.T) {
	var buf bytes.Buffer
	rec := &recorded{}
	boom := errors.New("sheet unavailable")
	src := SourceFunc(func(ctx context.Context) ([]Pending, error) { return nil, boom })

	_, err := newReminder(t, src, rec, &buf).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, boom, rec.err)
	assert.Contains(t, buf.String(), "reminder check failed")
}

func TestStart_EmptyScheduleDisabled(t *testing.T) {
	var buf bytes.Buffer
	r := newReminder(t, SourceFunc(func(ctx context.Context) ([]Pending, error) { return nil, nil }), nil, &buf)

	require.NoError(t, r.Start("", time.UTC))
	assert.Nil(t, r.cron)
	r.Stop(context.Background())
}

func TestStart_InvalidSchedule(t *testing.T) {
	var buf bytes.Buffer
	r := newReminder(t, SourceFunc(func(ctx context.Context) ([]Pending, error) { return nil, nil }), nil, &buf)

	assert.Error(t, r.Start("every two hours", time.UTC))
}

func TestStart_Stop(t *testing.T) {
	var buf bytes.Buffer
	r := newReminder(t, SourceFunc(func(ctx context.Context) ([]Pending, error) { return nil, nil }), nil, &buf)

	require.NoError(t, r.Start(DefaultSchedule, time.FixedZone("WIB", 7*3600)))
	require.NotNil(t, r.cron)
	assert.Len(t, r.cron.Entries(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule(""))
	assert.NoError(t, ValidateSchedule(DefaultSchedule))
	assert.NoError(t, ValidateSchedule("*/30 * * * *"))
	assert.Error(t, ValidateSchedule("0 0 8 * * *"))
	assert.Error(t, ValidateSchedule("nope"))
}

func TestRun_Notifies(t *testing.T) {
	var buf bytes.Buffer
	var got []Result
	src := SourceFunc(func(ctx context.Context) ([]Pending, error) {
		return []Pending{{Row: 2, RegistrationNumber: "001", FullName: "Siti"}}, nil
	})
	r := newReminder(t, src, nil, &buf)
	r.AddNotifier(NotifierFunc(func(ctx context.Context, res Result) error {
		got = append(got, res)
		return nil
	}))

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Siti"}, got[0].Names)
}

func TestRun_NotifierSkippedWhenNoneUnserved(t *testing.T) {
	var buf bytes.Buffer
	called := false
	r := newReminder(t, SourceFunc(func(ctx context.Context) ([]Pending, error) { return nil, nil }), nil, &buf)
	r.AddNotifier(NotifierFunc(func(ctx context.Context, res Result) error {
		called = true
		return nil
	}))

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRun_NotifierFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	src := SourceFunc(func(ctx context.Context) ([]Pending, error) {
		return []Pending{{Row: 2, FullName: "Siti"}}, nil
	})
	r := newReminder(t, src, nil, &buf)
	r.AddNotifier(NotifierFunc(func(ctx context.Context, res Result) error {
		return errors.New("hook down")
	}))

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Contains(t, buf.String(), "reminder notification failed")
	assert.Contains(t, buf.String(), "hook down")
}

func TestRun_EveryNotifierRuns(t *testing.T) {
	var buf bytes.Buffer
	src := SourceFunc(func(ctx context.Context) ([]Pending, error) {
		return []Pending{{Row: 3, FullName: "Ani"}}, nil
	})
	r := newReminder(t, src, nil, &buf)
	second := 0
	r.AddNotifier(NotifierFunc(func(ctx context.Context, res Result) error { return errors.New("first down") }))
	r.AddNotifier(NotifierFunc(func(ctx context.Context, res Result) error {
		second++
		return nil
	}))

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second)
}
