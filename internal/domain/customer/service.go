package customer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"solarops/internal/domain/payperiod"
	"solarops/internal/platform/realtime"
	"solarops/internal/platform/storage"
)

// Pricer recomputes the denormalized ledger columns of a subcontract job.
type Pricer interface {
	Price(job Job)
}

// PayCache is told when a CRM customer's system changes, since closed installs are paid from it.
type PayCache interface {
	InvalidateAt(ctx context.Context, times ...time.Time)
}

type Service struct {
	store   StoreAPI
	files   storage.Store
	changes realtime.Publisher
	pricer  Pricer
	pay     PayCache
	now     func() time.Time
}

func NewService(store StoreAPI, files storage.Store, changes realtime.Publisher) *Service {
	return &Service{store: store, files: files, changes: changes, now: time.Now}
}

// SetPricer installs the ledger used on every save and read of subcontract jobs.
func (s *Service) SetPricer(p Pricer) {
	s.pricer = p
}

func (s *Service) SetPayCache(pay PayCache) {
	s.pay = pay
}

func (s *Service) invalidatePay(ctx context.Context, job Job) {
	if s.pay == nil || job.Kind() != KindCRM {
		return
	}
	now := s.now()
	s.pay.InvalidateAt(ctx, now, now.AddDate(0, 0, -payperiod.LengthDays))
}

func (s *Service) price(job Job) {
	if s.pricer != nil && SubcontractOf(job) != nil {
		s.pricer.Price(job)
	}
}

func (s *Service) Create(ctx context.Context, job Job) (string, error) {
	if err := Validate(job); err != nil {
		return "", err
	}
	s.price(job)
	id, err := s.store.CreateJob(ctx, job)
	if err != nil {
		return "", err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionInsert, id)
	return id, nil
}

func (s *Service) Get(ctx context.Context, customerID string) (Job, error) {
	job, err := s.store.GetJob(ctx, customerID)
	if err != nil {
		return nil, err
	}
	s.price(job)
	return job, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Job, int, error) {
	if filter.Kind != "" && !ValidKind(filter.Kind) {
		return nil, 0, ErrUnknownKind
	}
	jobs, total, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for _, job := range jobs {
		s.price(job)
	}
	return jobs, total, nil
}

// Update replaces the job row; a job keeps the kind it was created with.
func (s *Service) Update(ctx context.Context, job Job) error {
	if err := Validate(job); err != nil {
		return err
	}
	current, err := s.store.GetJob(ctx, job.Base().ID)
	if err != nil {
		return err
	}
	if current.Kind() != job.Kind() {
		return ErrKindChange
	}
	s.price(job)
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionUpdate, job.Base().ID)
	s.invalidatePay(ctx, job)
	return nil
}

func (s *Service) Delete(ctx context.Context, customerID string) error {
	current, err := s.store.GetJob(ctx, customerID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteJob(ctx, customerID); err != nil {
		return err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionDelete, customerID)
	s.invalidatePay(ctx, current)
	return nil
}

// RecordMilestone upserts the customer's timeline row for milestone.
func (s *Service) RecordMilestone(ctx context.Context, customerID, milestone, ticketID string, at time.Time) error {
	if !ValidMilestone(milestone) {
		return ErrUnknownMilestone
	}
	entry := TimelineEntry{CustomerID: customerID, Milestone: milestone, TicketID: ticketID, OccurredAt: at.UTC()}
	if err := s.store.UpsertTimeline(ctx, entry); err != nil {
		return fmt.Errorf("upsert timeline %s: %w", milestone, err)
	}
	realtime.Notify(ctx, s.changes, TimelineTable, realtime.ActionUpdate, customerID)
	return nil
}

func (s *Service) Timeline(ctx context.Context, customerID string) ([]TimelineEntry, error) {
	return s.store.ListTimeline(ctx, customerID)
}

// UploadDocument stores the file in the customer-documents bucket and records it.
func (s *Service) UploadDocument(ctx context.Context, customerID, fileName, uploadedBy string, r io.Reader) (Document, error) {
	if _, err := s.store.GetJob(ctx, customerID); err != nil {
		return Document{}, err
	}
	fileName = filepath.Base(strings.TrimSpace(fileName))
	key := storage.ObjectKey(customerID, uuid.NewString(), s.now(), filepath.Ext(fileName))
	obj, err := s.files.Put(ctx, storage.BucketCustomerDocuments, key, r)
	if err != nil {
		return Document{}, fmt.Errorf("store document: %w", err)
	}
	doc, err := s.store.CreateDocument(ctx, Document{
		CustomerID: customerID,
		FileName:   fileName,
		Path:       obj.Path,
		URL:        obj.URL,
		Size:       obj.Size,
		UploadedBy: uploadedBy,
	})
	if err != nil {
		if delErr := s.files.Delete(ctx, storage.BucketCustomerDocuments, obj.Path); delErr != nil {
			slog.Warn("orphaned document cleanup failed", "path", obj.Path, "err", delErr)
		}
		return Document{}, err
	}
	realtime.Notify(ctx, s.changes, DocumentsTable, realtime.ActionInsert, doc.ID)
	return doc, nil
}

// AttachDocument records a file another component already stored for the customer.
func (s *Service) AttachDocument(ctx context.Context, customerID, fileName string, obj storage.Object) (Document, error) {
	doc, err := s.store.CreateDocument(ctx, Document{
		CustomerID: customerID,
		FileName:   fileName,
		Path:       obj.Path,
		URL:        obj.URL,
		Size:       obj.Size,
	})
	if err != nil {
		return Document{}, err
	}
	realtime.Notify(ctx, s.changes, DocumentsTable, realtime.ActionInsert, doc.ID)
	return doc, nil
}

func (s *Service) Documents(ctx context.Context, customerID string) ([]Document, error) {
	return s.store.ListDocuments(ctx, customerID)
}

func (s *Service) DeleteDocument(ctx context.Context, customerID, documentID string) error {
	doc, err := s.store.GetDocument(ctx, customerID, documentID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, customerID, documentID); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, storage.BucketCustomerDocuments, doc.Path); err != nil {
		slog.Warn("document file delete failed", "path", doc.Path, "err", err)
	}
	realtime.Notify(ctx, s.changes, DocumentsTable, realtime.ActionDelete, documentID)
	return nil
}
