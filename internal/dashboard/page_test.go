package dashboard

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/pm10dash/internal/analysis"
	"github.com/chrissnell/pm10dash/internal/dataset"
)

func testOptions() Options {
	return Options{
		Station:       "Shunyi",
		Period:        "2013-2017",
		PreferredYear: 2015,
		PreviewRows:   100,
	}
}

func mustTable(t *testing.T, records []dataset.Record) *dataset.Table {
	t.Helper()
	table, err := dataset.FromRecords("test.csv", records)
	require.NoError(t, err)
	return table
}

func exampleTable(t *testing.T) *dataset.Table {
	return mustTable(t, []dataset.Record{
		{Year: 2013, Month: 3, Day: 1, Hour: 8, PM10: 120},
		{Year: 2014, Month: 3, Day: 1, Hour: 8, PM10: 80},
		{Year: 2015, Month: 1, Day: 1, Hour: 9, PM10: 50},
		{Year: 2015, Month: 2, Day: 1, Hour: 9, PM10: 50},
	})
}

func TestBuild_PeakAndCharts(t *testing.T) {
	page := NewBuilder(testOptions(), nil).Build(exampleTable(t), 0)

	assert.Equal(t, "Dashboard Kualitas Udara: Analisis PM10", page.Title)
	assert.Equal(t, "Stasiun: Shunyi (Data dari 2013-2017)", page.Subtitle)
	assert.Len(t, page.About.Questions, 2)
	assert.Nil(t, page.Failure)

	assert.Equal(t, []int{2013, 2014, 2015}, page.Years)
	assert.Equal(t, 2015, page.SelectedYear, "preferred year is selected by default")

	require.Empty(t, page.Hourly.Error)
	require.NotNil(t, page.Hourly.Peak)
	assert.Equal(t, "Jam 8:00", page.Hourly.Peak.Value)
	assert.Equal(t, 8, page.Hourly.Peak.Hour)
	assert.Contains(t, page.Hourly.Peak.Tooltip, "100.00 µg/m³")
	assert.Contains(t, page.Hourly.Peak.Tooltip, "Moderate")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(page.Hourly.Chart)), "<svg"))

	require.Empty(t, page.Monthly.Error)
	assert.Empty(t, page.Monthly.NoData)
	assert.Equal(t, 2015, page.Monthly.Year)
	assert.Contains(t, string(page.Monthly.Chart), "<svg")

	assert.Equal(t, 4, page.Rows)
	assert.Len(t, page.Preview.Rows, 4)
	assert.Equal(t, dataset.ColTimestamp, page.Preview.Header[len(page.Preview.Header)-1])
}

func TestBuild_YearWithoutRows(t *testing.T) {
	page := NewBuilder(testOptions(), nil).Build(exampleTable(t), 2016)

	assert.Equal(t, 2016, page.SelectedYear)
	assert.Empty(t, page.Monthly.Chart)
	assert.Equal(t, "Tidak ada data PM10 untuk tahun 2016.", page.Monthly.NoData)

	assert.NotEmpty(t, page.Hourly.Chart, "hourly chart is independent of the selected year")
	assert.NotNil(t, page.Hourly.Peak)
}

func TestBuild_FallsBackToFirstYear(t *testing.T) {
	table := mustTable(t, []dataset.Record{
		{Year: 2013, Month: 1, Day: 1, Hour: 0, PM10: 10},
		{Year: 2014, Month: 1, Day: 1, Hour: 0, PM10: 20},
	})
	page := NewBuilder(testOptions(), nil).Build(table, 0)
	assert.Equal(t, 2013, page.SelectedYear)
}

func TestBuild_AllReadingsMissing(t *testing.T) {
	table := mustTable(t, []dataset.Record{
		{Year: 2015, Month: 1, Day: 1, Hour: 3, PM10: math.NaN()},
		{Year: 2015, Month: 2, Day: 1, Hour: 4, PM10: math.NaN()},
	})
	page := NewBuilder(testOptions(), nil).Build(table, 2015)

	assert.Empty(t, page.Hourly.Error)
	assert.True(t, page.Hourly.Insufficient)
	assert.Nil(t, page.Hourly.Peak)
	assert.Empty(t, page.Hourly.Chart)

	assert.Empty(t, page.Monthly.Error)
	assert.Empty(t, page.Monthly.Chart)
	assert.Contains(t, page.Monthly.NoData, "tidak cukup")
}

func TestBuild_GapsAreNotBridged(t *testing.T) {
	table := mustTable(t, []dataset.Record{
		{Year: 2015, Month: 1, Day: 1, Hour: 0, PM10: 10},
		{Year: 2015, Month: 1, Day: 1, Hour: 1, PM10: math.NaN()},
		{Year: 2015, Month: 1, Day: 1, Hour: 2, PM10: 30},
	})
	page := NewBuilder(testOptions(), nil).Build(table, 2015)

	require.Empty(t, page.Hourly.Error)
	assert.Equal(t, 2, page.Hourly.Peak.Hour)
	assert.NotContains(t, string(page.Hourly.Chart), "NaN")
}

func TestBuild_SectionErrorsAreIsolated(t *testing.T) {
	var failed []string
	b := NewBuilder(testOptions(), nil)
	b.SetObserver(func(section string, err error) {
		failed = append(failed, section)
		var ae *analysis.Error
		assert.True(t, errors.As(err, &ae))
	})

	page := b.Build(nil, 2015)

	assert.Contains(t, page.Hourly.Error, "Error saat menganalisis data per jam")
	assert.Contains(t, page.Monthly.Error, "Error saat menganalisis data per bulan")
	assert.Equal(t, []string{analysis.SectionHourly, analysis.SectionMonthly}, failed)
	assert.Equal(t, "Tampilkan Data Mentah (Sudah Diproses)", page.Preview.Summary)
}

func TestLoadFailure(t *testing.T) {
	b := NewBuilder(testOptions(), nil)

	tests := []struct {
		name    string
		err     error
		message string
		hint    string
	}{
		{
			name:    "missing file",
			err:     &dataset.FileNotFoundError{Name: "main_data.csv", Dir: "/srv/pm10"},
			message: "Error: File 'main_data.csv' tidak ditemukan.",
			hint:    "Pastikan 'main_data.csv' ada di folder /srv/pm10.",
		},
		{
			name:    "unparsable file",
			err:     &dataset.LoadError{Name: "main_data.csv", Err: errors.New("missing column PM10")},
			message: "Terjadi error saat memuat data: missing column PM10",
		},
		{
			name:    "other error",
			err:     errors.New("disk on fire"),
			message: "Terjadi error saat memuat data: disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := b.LoadFailure(tt.err)
			require.NotNil(t, page.Failure)
			assert.Equal(t, tt.message, page.Failure.Message)
			assert.Equal(t, tt.hint, page.Failure.Hint)
			assert.Empty(t, page.Years)
			assert.Empty(t, page.Hourly.Chart)
		})
	}
}
