package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/testkube/report-dashboard/internal/charts"
	"github.com/testkube/report-dashboard/internal/manifest"
	"github.com/testkube/report-dashboard/internal/stats"
)

// HistorySource provides the stats history shown by the dashboard.
type HistorySource interface {
	History() (*stats.HistoryLog, error)
}

type Server struct {
	fs           afero.Fs
	dashboardDir string
	manifestPath string
	history      HistorySource
	charts       *charts.Generator
	log          *logrus.Entry
}

func NewServer(fs afero.Fs, dashboardDir, manifestPath string, history HistorySource, log *logrus.Entry) *Server {
	return &Server{
		fs:           fs,
		dashboardDir: dashboardDir,
		manifestPath: manifestPath,
		history:      history,
		charts:       charts.NewGenerator(),
		log:          log.WithField("component", "server"),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// API routes
	r.Get("/api/v1/history", s.handleHistoryAPI)
	r.Get("/api/v1/manifest", s.handleManifestAPI)

	// Charts
	r.Get("/charts/pass-rate", s.handlePassRateChart)
	r.Get("/charts/platforms", s.handlePlatformsChart)

	// Static files
	r.Handle("/*", http.FileServer(afero.NewHttpFs(s.fs).Dir(s.dashboardDir)))

	return r
}

func (s *Server) handleHistoryAPI(w http.ResponseWriter, r *http.Request) {
	h, err := s.history.History()
	if err != nil {
		s.log.WithError(err).Error("Error loading stats history")
		http.Error(w, "Failed to load stats history", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, h)
}

func (s *Server) handleManifestAPI(w http.ResponseWriter, r *http.Request) {
	records, err := manifest.Load(s.fs, s.manifestPath)
	if err != nil {
		if errors.Is(err, manifest.ErrManifestNotFound) {
			http.Error(w, "Manifest not generated yet", http.StatusNotFound)
			return
		}
		s.log.WithError(err).Error("Error loading manifest")
		http.Error(w, "Failed to load manifest", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, records)
}

func (s *Server) handlePassRateChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, s.charts.PassRateChart)
}

func (s *Server) handlePlatformsChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, s.charts.PlatformRunsChart)
}

func (s *Server) renderChart(w http.ResponseWriter, render func([]stats.DayEntry) (string, error)) {
	h, err := s.history.History()
	if err != nil {
		s.log.WithError(err).Error("Error loading stats history")
		http.Error(w, "Failed to load stats history", http.StatusInternalServerError)
		return
	}
	page, err := render(h.Entries)
	if err != nil {
		s.log.WithError(err).Error("Chart error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(page))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("Error encoding response")
	}
}
