package restserver

import (
	"math"
	"time"

	"github.com/chrissnell/pm10dash/internal/analysis"
	"github.com/chrissnell/pm10dash/pkg/aqi"
)

// YearsResponse lists the years present in the dataset
type YearsResponse struct {
	Years       []int `json:"years"`
	DefaultYear int   `json:"default_year"`
}

// HourlyMeanResponse is one hour-of-day aggregate. Mean and AQI are null for
// hours without a single PM10 reading.
type HourlyMeanResponse struct {
	Hour  int        `json:"hour"`
	Mean  *float64   `json:"mean"`
	Count int        `json:"count"`
	AQI   *aqi.Index `json:"aqi"`
}

// HourlyResponse is the daily PM10 pattern across all years
type HourlyResponse struct {
	Station string               `json:"station"`
	Period  string               `json:"period"`
	Hourly  []HourlyMeanResponse `json:"hourly"`
}

// MonthlyMeanResponse is one month aggregate of a single year
type MonthlyMeanResponse struct {
	Month int        `json:"month"`
	Mean  *float64   `json:"mean"`
	Count int        `json:"count"`
	AQI   *aqi.Index `json:"aqi"`
}

// MonthlyResponse is the monthly PM10 trend of one year. Monthly is empty
// when the dataset has no rows for Year.
type MonthlyResponse struct {
	Station string                `json:"station"`
	Year    int                   `json:"year"`
	Monthly []MonthlyMeanResponse `json:"monthly"`
}

// HealthResponse reports liveness and the dataset cache state
type HealthResponse struct {
	Status   string    `json:"status"`
	DataFile string    `json:"data_file"`
	DataDir  string    `json:"data_dir"`
	Loaded   bool      `json:"loaded"`
	Time     time.Time `json:"time"`
}

// ReloadResponse confirms a dataset reload request
type ReloadResponse struct {
	Status   string `json:"status"`
	DataFile string `json:"data_file"`
}

func meanValue(mean float64, count int) (*float64, *aqi.Index) {
	if count == 0 || math.IsNaN(mean) {
		return nil, nil
	}
	m := mean
	idx := aqi.ForPM10(mean)
	return &m, &idx
}

func transformHourly(means []analysis.HourlyMean) []HourlyMeanResponse {
	out := make([]HourlyMeanResponse, len(means))
	for i, h := range means {
		mean, idx := meanValue(h.Mean, h.Count)
		out[i] = HourlyMeanResponse{Hour: h.Hour, Mean: mean, Count: h.Count, AQI: idx}
	}
	return out
}

func transformMonthly(means []analysis.MonthlyMean) []MonthlyMeanResponse {
	out := make([]MonthlyMeanResponse, len(means))
	for i, m := range means {
		mean, idx := meanValue(m.Mean, m.Count)
		out[i] = MonthlyMeanResponse{Month: m.Month, Mean: mean, Count: m.Count, AQI: idx}
	}
	return out
}
