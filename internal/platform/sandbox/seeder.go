// Package sandbox generates synthetic register rows for demos and local
// development. Dates and ages come out in the mix of formats clerks type,
// so a seeded register exercises the date and age normalisers.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bidan/registry/pkg/caldate"
)

// MaxCount bounds a single seed request.
const MaxCount = 500

// SeedConfig controls the volume and shape of generated rows.
type SeedConfig struct {
	Count int `json:"count"`
	// Days spreads visit dates over the last Days days, today included.
	Days int `json:"days"`
	// ServedRatio is the share of rows with a therapy recorded.
	ServedRatio float64 `json:"servedRatio"`
	Seed        int64   `json:"seed"`
}

// DefaultSeedConfig returns a small, mostly served register over a month.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Count:       25,
		Days:        30,
		ServedRatio: 0.6,
	}
}

// Validate checks the config bounds.
func (c SeedConfig) Validate() error {
	switch {
	case c.Count < 1 || c.Count > MaxCount:
		return fmt.Errorf("count must be between 1 and %d", MaxCount)
	case c.Days < 1:
		return errors.New("days must be at least 1")
	case c.ServedRatio < 0 || c.ServedRatio > 1:
		return errors.New("served ratio must be between 0 and 1")
	}
	return nil
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Rows     int           `json:"rows"`
	Served   int           `json:"served"`
	Duration time.Duration `json:"duration"`
}

// ---------------------------------------------------------------------------
// Pools
// ---------------------------------------------------------------------------

var (
	firstNames = []string{
		"Siti", "Dewi", "Rina", "Nur", "Ani", "Sri", "Wulan", "Fitri", "Ayu", "Lestari",
		"Putri", "Indah", "Yuni", "Ratna", "Eka", "Dian",
	}
	lastNames = []string{
		"Aminah", "Lestari", "Hasanah", "Rahayu", "Wati", "Susanti", "Handayani",
		"Kurniasih", "Permata", "Safitri", "",
	}
	guardians = []string{"Budi", "Agus", "Joko", "Slamet", "Hendra", "Rudi", "Bambang", ""}
	streets   = []string{"Jl. Melati", "Jl. Mawar", "Jl. Kenanga", "Jl. Anggrek", "Gg. Dahlia", "Jl. Flamboyan"}
	villages  = []string{"Desa Sukamaju", "Desa Mekarsari", "Desa Cibodas", "Kel. Sukajadi", "Desa Karanganyar"}
)

// kind is a visit profile: who comes in, with what, and what they get.
type kind struct {
	complaints []string
	therapies  []string
	// ages in whole years; infants use months
	minAge, maxAge int
}

var kinds = []kind{
	{[]string{"kontrol hamil", "hamil 7 bulan, pusing", "periksa kehamilan"}, []string{"ANC, tablet Fe", "ANC terpadu", "ANC, vitamin"}, 18, 40},
	{[]string{"nifas hari ke-7", "kontrol nifas"}, []string{"PNC", "PNC, vitamin A"}, 18, 40},
	{[]string{"KB suntik", "ganti KB pil", "pasang implan"}, []string{"KB suntik 3 bulan", "kontrasepsi pil", "KB implan"}, 20, 45},
	{[]string{"imunisasi", "jadwal imunisasi campak"}, []string{"Imunisasi BCG", "Imunisasi DPT", "vaksin campak"}, 0, 1},
	{[]string{"demam", "batuk pilek", "diare"}, []string{"Paracetamol sirup", "Oralit, zinc", "kontrol 3 hari lagi"}, 0, 12},
	{[]string{"pusing", "darah tinggi", "nyeri sendi"}, []string{"Periksa tensi, amlodipin", "Antasida", "kontrol rutin"}, 40, 70},
}

// ---------------------------------------------------------------------------
// Generator
// ---------------------------------------------------------------------------

// Generator produces deterministic synthetic rows.
type Generator struct {
	rng     *rand.Rand
	counter int
}

// NewGenerator returns a generator seeded for reproducibility. If seed is
// 0 a time-based seed is chosen.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// Date renders d in one of the formats found in the register.
func (g *Generator) Date(d caldate.Date) string {
	switch g.rng.Intn(5) {
	case 0:
		return fmt.Sprintf("%d/%d/%02d", d.Day, d.Month, d.Year%100)
	case 1:
		return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
	case 2:
		return caldate.Format(d, caldate.InputControl, nil)
	case 3:
		return fmt.Sprintf("%sT%02d:%02d:00", caldate.Format(d, caldate.InputControl, nil), g.between(7, 15), g.between(0, 59))
	default:
		return fmt.Sprintf("%d %s %d", d.Day, caldate.Indonesian.Month(time.Month(d.Month)), d.Year)
	}
}

// Age renders an age between minYears and maxYears. Ages under one year
// are written in months.
func (g *Generator) Age(minYears, maxYears int) string {
	years := g.between(minYears, maxYears)
	if years == 0 {
		return fmt.Sprintf("%d %s", g.between(1, 11), g.pick([]string{"bulan", "bln", "bl"}))
	}
	months := g.rng.Intn(12)
	switch g.rng.Intn(5) {
	case 0:
		if months > 0 {
			return fmt.Sprintf("%d th %d bl", years, months)
		}
		return fmt.Sprintf("%d th", years)
	case 1:
		return fmt.Sprintf("%dthn", years)
	case 2:
		if years >= 13 {
			return strconv.Itoa(years)
		}
		return fmt.Sprintf("%d tahun", years)
	case 3:
		if months > 0 {
			return fmt.Sprintf("%d tahun lebih %d bulan", years, months)
		}
		return fmt.Sprintf("%d tahun", years)
	default:
		return fmt.Sprintf("%d tahun", years)
	}
}

// Row generates one register row in column order A to I, dated within the
// last days days before today.
func (g *Generator) Row(today caldate.Date, days int, served bool) []string {
	g.counter++
	k := kinds[g.rng.Intn(len(kinds))]
	date := caldate.FromTime(today.Time().AddDate(0, 0, -g.rng.Intn(days)))

	name := g.pick(firstNames)
	if last := g.pick(lastNames); last != "" {
		name += " " + last
	}
	therapy := ""
	if served {
		therapy = g.pick(k.therapies)
	}
	notes := ""
	if g.rng.Intn(4) == 0 {
		notes = "kunjungan ulang"
	}

	return []string{
		fmt.Sprintf("SBX-%04d", g.counter),
		g.Date(date),
		name,
		g.pick(guardians),
		fmt.Sprintf("%s No. %d, %s", g.pick(streets), g.between(1, 120), g.pick(villages)),
		g.Age(k.minAge, k.maxAge),
		g.pick(k.complaints),
		therapy,
		notes,
	}
}

// ---------------------------------------------------------------------------
// Seeder
// ---------------------------------------------------------------------------

// Sink receives generated rows in column order A to I.
type Sink interface {
	AppendRow(ctx context.Context, cells []string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, cells []string) error

// AppendRow calls f.
func (f SinkFunc) AppendRow(ctx context.Context, cells []string) error {
	return f(ctx, cells)
}

// Seed generates cfg.Count rows and appends them to sink in order. It
// stops at the first failed append.
func Seed(ctx context.Context, sink Sink, today caldate.Date, cfg SeedConfig) (*SeedResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	g := NewGenerator(cfg.Seed)
	res := &SeedResult{}
	for i := 0; i < cfg.Count; i++ {
		served := g.rng.Float64() < cfg.ServedRatio
		if err := sink.AppendRow(ctx, g.Row(today, cfg.Days, served)); err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("append row %d: %w", i+1, err)
		}
		res.Rows++
		if served {
			res.Served++
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

// ---------------------------------------------------------------------------
// SeedHandler
// ---------------------------------------------------------------------------

// SeedHandler exposes seeding over HTTP. Mount it in development only.
type SeedHandler struct {
	sink   Sink
	today  func() caldate.Date
	logger zerolog.Logger
}

func NewSeedHandler(sink Sink, today func() caldate.Date, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{sink: sink, today: today, logger: logger}
}

// RegisterRoutes mounts POST /sandbox/seed on g.
func (h *SeedHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/sandbox/seed", h.handleSeed)
}

func (h *SeedHandler) handleSeed(c echo.Context) error {
	cfg := DefaultSeedConfig()
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&cfg); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if err := cfg.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := Seed(c.Request().Context(), h.sink, h.today(), cfg)
	if err != nil {
		h.logger.Error().Err(err).Msg("sandbox seed failed")
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.logger.Info().Int("rows", res.Rows).Int("served", res.Served).Dur("duration", res.Duration).Msg("sandbox seeded")
	return c.JSON(http.StatusCreated, res)
}
