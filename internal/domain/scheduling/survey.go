package scheduling

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jung-kurt/gofpdf"

	"solarops/internal/domain/checklist"
	"solarops/internal/domain/customer"
	"solarops/internal/platform/functions"
	"solarops/internal/platform/storage"
)

type Checklists interface {
	Get(ctx context.Context, phase, ticketID string) (checklist.View, error)
}

type Documents interface {
	AttachDocument(ctx context.Context, customerID, fileName string, obj storage.Object) (customer.Document, error)
}

// SurveyReports renders the site-survey PDF in process and files it with the customer's documents.
type SurveyReports struct {
	tickets    StoreAPI
	checklists Checklists
	docs       Documents
	files      storage.Store
	now        func() time.Time
}

func NewSurveyReports(tickets StoreAPI, checklists Checklists, docs Documents, files storage.Store) *SurveyReports {
	return &SurveyReports{tickets: tickets, checklists: checklists, docs: docs, files: files, now: time.Now}
}

func (r *SurveyReports) GenerateSiteSurvey(ctx context.Context, customerID, ticketID string) (functions.Result, error) {
	fileName, err := r.generate(ctx, customerID, ticketID)
	if err != nil {
		return functions.Result{Success: false, Error: err.Error()}, err
	}
	return functions.Result{Success: true, FileName: fileName}, nil
}

func (r *SurveyReports) generate(ctx context.Context, customerID, ticketID string) (string, error) {
	t, err := r.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return "", err
	}
	if t.CustomerID != customerID {
		return "", ErrTicketNotFound
	}
	if t.TicketType != TypeSiteSurvey {
		return "", ErrNotSiteSurvey
	}
	view, err := r.checklists.Get(ctx, checklist.PhaseSiteSurvey, ticketID)
	if err != nil {
		return "", fmt.Errorf("load survey checklist: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteSiteSurvey(&buf, t, view); err != nil {
		return "", fmt.Errorf("render survey pdf: %w", err)
	}

	now := r.now()
	fileName := fmt.Sprintf("site-survey-%s.pdf", now.Format(time.DateOnly))
	obj, err := r.files.Put(ctx, storage.BucketCustomerDocuments, storage.ObjectKey(customerID, ticketID, now, "pdf"), &buf)
	if err != nil {
		return "", fmt.Errorf("store survey pdf: %w", err)
	}
	if _, err := r.docs.AttachDocument(ctx, customerID, fileName, obj); err != nil {
		if delErr := r.files.Delete(ctx, obj.Bucket, obj.Path); delErr != nil {
			slog.Warn("orphaned survey pdf cleanup failed", "path", obj.Path, "err", delErr)
		}
		return "", fmt.Errorf("attach survey pdf: %w", err)
	}
	return fileName, nil
}

// WriteSiteSurvey renders the survey summary: ticket details and the photo checklist.
func WriteSiteSurvey(w io.Writer, t Ticket, c checklist.View) error {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Site Survey")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	field := func(label, value string) {
		if value == "" {
			return
		}
		pdf.CellFormat(40, 6, label, "", 0, "L", false, 0, "")
		pdf.MultiCell(0, 6, value, "", "L", false)
	}
	field("Customer", t.CustomerName)
	field("Address", t.CustomerAddress)
	field("Scheduled", t.ScheduledDate)
	if t.ClosedAt != nil {
		field("Completed", t.ClosedAt.Format("2006-01-02 15:04 MST"))
	}
	field("Close reason", t.CloseReason)
	field("Work performed", t.WorkPerformed)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Photo checklist (%d of %d)", c.Progress.Checked, c.Progress.Total))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(30, 7, "Section", "B", 0, "L", false, 0, "")
	pdf.CellFormat(90, 7, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, "Done", "B", 0, "C", false, 0, "")
	pdf.CellFormat(25, 7, "Photos", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range c.Items {
		done := ""
		if c.Checked(item.ID) {
			done = "yes"
		}
		pdf.CellFormat(30, 6, item.Section, "", 0, "L", false, 0, "")
		pdf.CellFormat(90, 6, item.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, done, "", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", len(c.PhotoURLs[item.ID])), "", 1, "R", false, 0, "")
	}

	return pdf.Output(w)
}
