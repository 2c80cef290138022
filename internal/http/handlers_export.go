package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"opsledger/internal/core"
	"opsledger/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// serveDownload buffers the whole file before sending so a mid-export error
// still yields a clean error response instead of a truncated download.
func (s *Server) serveDownload(w http.ResponseWriter, r *http.Request, name, contentType string, write func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := write(r.Context(), &buf); err != nil {
		respondDomainError(w, r, err)
		return
	}
	filename := fmt.Sprintf("%s-%s", time.Now().Format("2006-01-02"), name)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportInternPayments(w http.ResponseWriter, r *http.Request) {
	s.serveDownload(w, r, "intern-payments.xlsx", xlsxContentType, s.exporter.WriteInternPaymentsXLSX)
}

func (s *Server) handleExportClientPayments(w http.ResponseWriter, r *http.Request) {
	s.serveDownload(w, r, "client-payments.xlsx", xlsxContentType, s.exporter.WriteClientPaymentsXLSX)
}

func (s *Server) handleExportBusinessOverview(w http.ResponseWriter, r *http.Request) {
	s.serveDownload(w, r, "business-overview.xlsx", xlsxContentType, s.exporter.WriteBusinessOverviewXLSX)
}

func (s *Server) handleExportInternRoster(w http.ResponseWriter, r *http.Request) {
	s.serveDownload(w, r, "intern-roster.xlsx", xlsxContentType, s.exporter.WriteInternRosterXLSX)
}

func (s *Server) handleExportPaymentsCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.PaymentFilter{
		InternID:  q.Get("intern_id"),
		ClientID:  q.Get("client_id"),
		ProjectID: q.Get("project_id"),
		Status:    core.RecordStatus(q.Get("status")),
		Type:      core.PaymentType(q.Get("type")),
		Origin:    core.PaymentOrigin(q.Get("origin")),
	}
	s.serveDownload(w, r, "payments.csv", "text/csv; charset=utf-8", func(ctx context.Context, out io.Writer) error {
		return s.exporter.WritePaymentsCSV(ctx, out, filter)
	})
}
