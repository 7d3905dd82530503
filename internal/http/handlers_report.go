package http

import "net/http"

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.DashboardSummary(r.Context(), owner(r))
	if err != nil {
		respondError(w, r, err, "Summary not found")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.Monthly(r.Context(), owner(r), period(r))
	if err != nil {
		respondError(w, r, err, "Report not found")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.CategoryBreakdown(r.Context(), owner(r), period(r))
	if err != nil {
		respondError(w, r, err, "Report not found")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
