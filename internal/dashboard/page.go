// Package dashboard builds the view model of the PM10 dashboard page from a
// loaded dataset.
package dashboard

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/pm10dash/internal/analysis"
	"github.com/chrissnell/pm10dash/internal/dataset"
	"github.com/chrissnell/pm10dash/pkg/aqi"
)

const (
	pageTitle = "Dashboard Kualitas Udara: Analisis PM10"

	hourlyXName  = "Jam dalam Sehari"
	hourlyYName  = "Rata-rata Konsentrasi PM10 (µg/m³)"
	monthlyXName = "Bulan"
)

// Page is everything the dashboard template renders
type Page struct {
	Title    string
	Subtitle string
	About    About

	// Failure is set when the dataset could not be loaded. Nothing else on
	// the page is populated in that case.
	Failure *Failure

	Years        []int
	SelectedYear int

	Hourly  HourlySection
	Monthly MonthlySection
	Preview Preview

	Rows     int
	Source   string
	LoadedAt time.Time
}

// About is the sidebar panel describing the dashboard
type About struct {
	Heading   string
	Intro     string
	Questions []string
}

// Failure is the banner shown when loading the dataset failed
type Failure struct {
	Message string
	Hint    string
}

// HourlySection is the daily PM10 pattern
type HourlySection struct {
	Heading     string
	Description string
	Chart       template.HTML
	Peak        *PeakCallout

	// Insufficient is set when no hour has a single PM10 reading
	Insufficient bool
	Error        string
}

// PeakCallout highlights the hour with the highest mean
type PeakCallout struct {
	Label   string
	Value   string
	Tooltip string
	Hour    int
	Mean    float64
	AQI     aqi.Index
}

// MonthlySection is the monthly PM10 trend of the selected year
type MonthlySection struct {
	Heading     string
	Description string
	Year        int
	Chart       template.HTML
	NoData      string
	Error       string
}

// Preview is the collapsible raw-data panel
type Preview struct {
	Summary string
	Header  []string
	Rows    [][]string
}

// Options configures the page text and defaults
type Options struct {
	Station       string
	Period        string
	PreferredYear int
	PreviewRows   int
}

// SectionObserver is told about every section that rendered an inline error
type SectionObserver func(section string, err error)

// Builder turns a dataset into a Page
type Builder struct {
	opts     Options
	logger   *zap.SugaredLogger
	observer SectionObserver
}

// NewBuilder creates a page builder
func NewBuilder(opts Options, logger *zap.SugaredLogger) *Builder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 100
	}
	return &Builder{opts: opts, logger: logger}
}

// SetObserver registers fn to be called for each failed section
func (b *Builder) SetObserver(fn SectionObserver) {
	b.observer = fn
}

// Options returns the builder's options
func (b *Builder) Options() Options {
	return b.opts
}

func (b *Builder) header() *Page {
	return &Page{
		Title:    pageTitle,
		Subtitle: fmt.Sprintf("Stasiun: %s (Data dari %s)", b.opts.Station, b.opts.Period),
		About: About{
			Heading: "Tentang Dashboard Ini",
			Intro: fmt.Sprintf("Dashboard ini menjawab dua pertanyaan utama menggunakan data kualitas udara %s:",
				b.opts.Station),
			Questions: []string{
				"Jam puncak rata-rata PM10.",
				"Tren bulanan rata-rata PM10.",
			},
		},
	}
}

// LoadFailure builds the page shown when the dataset could not be loaded
func (b *Builder) LoadFailure(err error) *Page {
	p := b.header()
	p.Failure = describeFailure(err)
	return p
}

func describeFailure(err error) *Failure {
	var nf *dataset.FileNotFoundError
	if errors.As(err, &nf) {
		return &Failure{
			Message: fmt.Sprintf("Error: File '%s' tidak ditemukan.", nf.Name),
			Hint:    fmt.Sprintf("Pastikan '%s' ada di folder %s.", nf.Name, nf.Dir),
		}
	}
	var le *dataset.LoadError
	if errors.As(err, &le) {
		return &Failure{Message: fmt.Sprintf("Terjadi error saat memuat data: %v", le.Err)}
	}
	return &Failure{Message: fmt.Sprintf("Terjadi error saat memuat data: %v", err)}
}

// Build assembles the page for t with year selected. A zero year selects the
// preferred year, or the first available one.
func (b *Builder) Build(t *dataset.Table, year int) *Page {
	p := b.header()
	p.Years = analysis.Years(t)
	if year == 0 {
		year = analysis.DefaultYear(p.Years, b.opts.PreferredYear)
	}
	p.SelectedYear = year
	if t != nil {
		p.Rows = t.Len()
		p.Source = t.Source()
		p.LoadedAt = t.LoadedAt()
	}

	p.Hourly = HourlySection{
		Heading:     "Pola PM10 Harian (Rata-Rata Seluruh Tahun)",
		Description: "Analisis ini menunjukkan jam-jam di mana konsentrasi PM10 cenderung tinggi atau rendah dalam siklus 24 jam.",
	}
	if err := analysis.Guard(analysis.SectionHourly, func() error {
		return b.buildHourly(t, &p.Hourly)
	}); err != nil {
		p.Hourly.Error = fmt.Sprintf("Error saat menganalisis data per jam: %v", causeOf(err))
		b.sectionFailed(analysis.SectionHourly, err)
	}

	p.Monthly = MonthlySection{
		Heading:     "Tren PM10 Bulanan (Berdasarkan Tahun)",
		Description: "Analisis ini menunjukkan bagaimana konsentrasi PM10 berfluktuasi dari bulan ke bulan untuk tahun yang dipilih.",
		Year:        year,
	}
	if err := analysis.Guard(analysis.SectionMonthly, func() error {
		return b.buildMonthly(t, year, &p.Monthly)
	}); err != nil {
		p.Monthly.Error = fmt.Sprintf("Error saat menganalisis data per bulan: %v", causeOf(err))
		b.sectionFailed(analysis.SectionMonthly, err)
	}

	p.Preview = Preview{Summary: "Tampilkan Data Mentah (Sudah Diproses)"}
	if t != nil {
		p.Preview.Header, p.Preview.Rows = t.Preview(b.opts.PreviewRows)
	}
	return p
}

func (b *Builder) buildHourly(t *dataset.Table, s *HourlySection) error {
	means, err := analysis.HourlyMeans(t)
	if err != nil {
		return err
	}

	peak, err := analysis.Peak(means)
	switch {
	case errors.Is(err, analysis.ErrNoData):
		s.Insufficient = true
		return nil
	case err != nil:
		return err
	}
	s.Peak = newPeakCallout(peak)

	points := make([]point, len(means))
	for i, m := range means {
		points[i] = point{X: float64(m.Hour), Y: m.Mean}
	}
	s.Chart, err = lineChart{
		XName:     hourlyXName,
		YName:     hourlyYName,
		XMin:      0,
		XMax:      23,
		Points:    points,
		Highlight: peak.Hour,
	}.render()
	return err
}

func (b *Builder) buildMonthly(t *dataset.Table, year int, s *MonthlySection) error {
	means, err := analysis.MonthlyMeans(t, year)
	if err != nil {
		return err
	}
	if len(means) == 0 {
		s.NoData = fmt.Sprintf("Tidak ada data PM10 untuk tahun %d.", year)
		return nil
	}

	points := make([]point, len(means))
	for i, m := range means {
		points[i] = point{X: float64(m.Month), Y: m.Mean}
	}
	s.Chart, err = lineChart{
		XName:     monthlyXName,
		YName:     fmt.Sprintf("Rata-rata PM10 (µg/m³) - Tahun %d", year),
		XMin:      1,
		XMax:      12,
		Points:    points,
		Highlight: -1,
	}.render()
	if errors.Is(err, errNoPoints) {
		s.Chart = ""
		s.NoData = fmt.Sprintf("Data PM10 tahun %d tidak cukup untuk dianalisis.", year)
		return nil
	}
	return err
}

func newPeakCallout(peak analysis.HourlyMean) *PeakCallout {
	idx := aqi.ForPM10(peak.Mean)
	return &PeakCallout{
		Label: "Jam Puncak PM10",
		Value: fmt.Sprintf("Jam %d:00", peak.Hour),
		Tooltip: fmt.Sprintf("Rata-rata konsentrasi PM10 tertinggi terjadi pada jam %d:00, mencapai %.2f µg/m³ (AQI %d, %s).",
			peak.Hour, peak.Mean, idx.Value, idx.Category),
		Hour: peak.Hour,
		Mean: math.Round(peak.Mean*100) / 100,
		AQI:  idx,
	}
}

func (b *Builder) sectionFailed(section string, err error) {
	b.logger.Errorw("dashboard section failed", "section", section, "error", err)
	if b.observer != nil {
		b.observer(section, err)
	}
}

func causeOf(err error) error {
	var ae *analysis.Error
	if errors.As(err, &ae) && ae.Cause != nil {
		return ae.Cause
	}
	return err
}
