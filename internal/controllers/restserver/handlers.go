package restserver

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/chrissnell/pm10dash/internal/analysis"
	"github.com/chrissnell/pm10dash/internal/dashboard"
	"github.com/chrissnell/pm10dash/internal/dataset"
	"github.com/chrissnell/pm10dash/internal/export"
	"github.com/chrissnell/pm10dash/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// statusForError maps load and analysis failures onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, dataset.ErrFileNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, analysis.ErrInvalidYear):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorw("request failed", "path", req.URL.Path, "error", err)
	}
	if werr := h.formatter.WriteError(w, req, status, err.Error()); werr != nil {
		h.controller.logger.Errorf("error writing error response: %v", werr)
	}
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, http.StatusOK, data, nil); err != nil {
		h.controller.logger.Errorf("error writing response: %v", err)
	}
}

// selectedYear resolves the year for a page or export request: an explicit
// ?year= wins, then the visitor's session, then zero for the default.
func (h *Handlers) selectedYear(req *http.Request) (int, error) {
	if raw := req.URL.Query().Get("year"); raw != "" {
		year, err := analysis.ParseYear(raw)
		if err != nil {
			return 0, err
		}
		if st, ok := h.currentSession(req); ok {
			h.controller.sessions.SetYear(st.ID, year)
		}
		return year, nil
	}
	if st, ok := h.currentSession(req); ok {
		return st.Year, nil
	}
	return 0, nil
}

// ServeDashboard renders the dashboard page
func (h *Handlers) ServeDashboard(w http.ResponseWriter, req *http.Request) {
	year, err := h.selectedYear(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		page   *dashboard.Page
		status = http.StatusOK
	)
	table, err := h.controller.table()
	if err != nil {
		page = h.controller.builder.LoadFailure(err)
		status = statusForError(err)
	} else {
		page = h.controller.builder.Build(table, year)
	}

	// Render into a buffer so a template failure still yields a clean 500
	var buf bytes.Buffer
	if err := h.controller.views.renderDashboard(&buf, page); err != nil {
		h.controller.logger.Errorf("error executing dashboard template: %v", err)
		http.Error(w, "error rendering dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if req.Method != http.MethodHead {
		w.Write(buf.Bytes())
	}
}

// SelectYear handles the year selector form
func (h *Handlers) SelectYear(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	year, err := analysis.ParseYear(req.PostForm.Get("year"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, ok := h.currentSession(req)
	if !ok {
		st = h.controller.sessions.Start()
	}
	h.controller.sessions.SetYear(st.ID, year)
	h.setSessionCookie(w, st.ID)

	http.Redirect(w, req, "/", http.StatusSeeOther)
}

// GetYears lists the years in the dataset
func (h *Handlers) GetYears(w http.ResponseWriter, req *http.Request) {
	table, err := h.controller.table()
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	years := analysis.Years(table)
	h.write(w, req, YearsResponse{
		Years:       years,
		DefaultYear: analysis.DefaultYear(years, h.controller.cfg.Dashboard.PreferredYear),
	})
}

// GetHourly returns the mean PM10 per hour of day
func (h *Handlers) GetHourly(w http.ResponseWriter, req *http.Request) {
	table, err := h.controller.table()
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	var means []analysis.HourlyMean
	if err := analysis.Guard(analysis.SectionHourly, func() error {
		var err error
		means, err = analysis.HourlyMeans(table)
		return err
	}); err != nil {
		h.writeError(w, req, err)
		return
	}

	h.write(w, req, HourlyResponse{
		Station: h.controller.cfg.Dashboard.Station,
		Period:  h.controller.cfg.Dashboard.Period,
		Hourly:  transformHourly(means),
	})
}

// GetPeak returns the hour of day with the highest mean PM10
func (h *Handlers) GetPeak(w http.ResponseWriter, req *http.Request) {
	table, err := h.controller.table()
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	var peak analysis.HourlyMean
	if err := analysis.Guard(analysis.SectionHourly, func() error {
		var err error
		peak, err = analysis.PeakHour(table)
		return err
	}); err != nil {
		h.writeError(w, req, err)
		return
	}

	h.write(w, req, transformHourly([]analysis.HourlyMean{peak})[0])
}

// GetMonthly returns the mean PM10 per month of the requested year
func (h *Handlers) GetMonthly(w http.ResponseWriter, req *http.Request) {
	year, err := analysis.ParseYear(mux.Vars(req)["year"])
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	table, err := h.controller.table()
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	var means []analysis.MonthlyMean
	if err := analysis.Guard(analysis.SectionMonthly, func() error {
		var err error
		means, err = analysis.MonthlyMeans(table, year)
		return err
	}); err != nil {
		h.writeError(w, req, err)
		return
	}

	h.write(w, req, MonthlyResponse{
		Station: h.controller.cfg.Dashboard.Station,
		Year:    year,
		Monthly: transformMonthly(means),
	})
}

// ExportAggregates downloads the hourly and monthly aggregates as XLSX
func (h *Handlers) ExportAggregates(w http.ResponseWriter, req *http.Request) {
	year, err := h.selectedYear(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	table, err := h.controller.table()
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if year == 0 {
		year = analysis.DefaultYear(analysis.Years(table), h.controller.cfg.Dashboard.PreferredYear)
	}

	wb := export.Workbook{
		Station: h.controller.cfg.Dashboard.Station,
		Period:  h.controller.cfg.Dashboard.Period,
		Year:    year,
	}
	if err := analysis.Guard(analysis.SectionHourly, func() error {
		var err error
		wb.Hourly, err = analysis.HourlyMeans(table)
		return err
	}); err != nil {
		h.writeError(w, req, err)
		return
	}
	if err := analysis.Guard(analysis.SectionMonthly, func() error {
		var err error
		wb.Monthly, err = analysis.MonthlyMeans(table, year)
		return err
	}); err != nil {
		h.writeError(w, req, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, wb); err != nil {
		h.writeError(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="pm10-%s-%d.xlsx"`, h.controller.cfg.Dashboard.Station, year))
	w.Write(buf.Bytes())
}

// ExportPreview downloads the raw-data preview as CSV
func (h *Handlers) ExportPreview(w http.ResponseWriter, req *http.Request) {
	table, err := h.controller.table()
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	header, rows := table.Preview(h.controller.cfg.Dashboard.PreviewRows)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="preview.csv"`)
	if err := export.WritePreviewCSV(w, header, rows); err != nil {
		h.controller.logger.Errorf("error writing preview CSV: %v", err)
	}
}

// Reload drops the memoized dataset so the next request reads the file again
func (h *Handlers) Reload(w http.ResponseWriter, req *http.Request) {
	name := h.controller.cfg.Dashboard.DataFile
	h.controller.loader.Forget(name)
	h.controller.logger.Infof("dataset %s will be reloaded on next request", name)
	h.write(w, req, ReloadResponse{Status: "reloaded", DataFile: name})
}

// Healthz reports liveness. It never triggers a dataset load.
func (h *Handlers) Healthz(w http.ResponseWriter, req *http.Request) {
	name := h.controller.cfg.Dashboard.DataFile
	h.write(w, req, HealthResponse{
		Status:   "ok",
		DataFile: name,
		DataDir:  h.controller.loader.Dir(),
		Loaded:   h.controller.loader.Cached(name),
		Time:     time.Now().UTC(),
	})
}
