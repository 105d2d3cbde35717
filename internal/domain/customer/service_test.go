package customer

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solarops/internal/platform/storage"
)

type fakeStore struct {
	jobs      map[string]Job
	timeline  []TimelineEntry
	documents []Document
	nextID    int
	failDocs  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: map[string]Job{}}
}

func (f *fakeStore) CreateJob(_ context.Context, job Job) (string, error) {
	f.nextID++
	id := "c" + strconv.Itoa(f.nextID)
	job.Base().ID = id
	f.jobs[id] = job
	return id, nil
}

func (f *fakeStore) GetJob(_ context.Context, customerID string) (Job, error) {
	job, ok := f.jobs[customerID]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return job, nil
}

func (f *fakeStore) ListJobs(context.Context, ListFilter) ([]Job, int, error) {
	var out []Job
	for _, job := range f.jobs {
		out = append(out, job)
	}
	return out, len(out), nil
}

func (f *fakeStore) UpdateJob(_ context.Context, job Job) error {
	f.jobs[job.Base().ID] = job
	return nil
}

func (f *fakeStore) DeleteJob(_ context.Context, customerID string) error {
	delete(f.jobs, customerID)
	return nil
}

func (f *fakeStore) UpsertTimeline(_ context.Context, entry TimelineEntry) error {
	for i := range f.timeline {
		if f.timeline[i].CustomerID == entry.CustomerID && f.timeline[i].Milestone == entry.Milestone {
			f.timeline[i] = entry
			return nil
		}
	}
	f.timeline = append(f.timeline, entry)
	return nil
}

func (f *fakeStore) ListTimeline(context.Context, string) ([]TimelineEntry, error) {
	return f.timeline, nil
}

func (f *fakeStore) CreateDocument(_ context.Context, doc Document) (Document, error) {
	if f.failDocs {
		return Document{}, errors.New("insert failed")
	}
	doc.ID = "d" + strconv.Itoa(len(f.documents)+1)
	f.documents = append(f.documents, doc)
	return doc, nil
}

func (f *fakeStore) GetDocument(_ context.Context, customerID, documentID string) (*Document, error) {
	for _, doc := range f.documents {
		if doc.CustomerID == customerID && doc.ID == documentID {
			d := doc
			return &d, nil
		}
	}
	return nil, ErrDocumentNotFound
}

func (f *fakeStore) ListDocuments(context.Context, string) ([]Document, error) {
	return f.documents, nil
}

func (f *fakeStore) DeleteDocument(_ context.Context, _, documentID string) error {
	for i, doc := range f.documents {
		if doc.ID == documentID {
			f.documents = append(f.documents[:i], f.documents[i+1:]...)
			return nil
		}
	}
	return ErrDocumentNotFound
}

type countingPricer struct {
	calls int
}

func (p *countingPricer) Price(job Job) {
	p.calls++
	if sub := SubcontractOf(job); sub != nil {
		sub.NetAmount = decimal.NewFromInt(42)
	}
}

func TestServiceUpdateRejectsKindChange(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	id, err := svc.Create(ctx, &CrmCustomer{Identity: Identity{Name: "Rivera"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	err = svc.Update(ctx, &SubcontractNewInstall{Identity: Identity{ID: id, Name: "Rivera"}})
	if !errors.Is(err, ErrKindChange) {
		t.Fatalf("expected ErrKindChange, got %v", err)
	}
}

func TestServicePricesSubcontractJobsOnSaveAndRead(t *testing.T) {
	store := newFakeStore()
	pricer := &countingPricer{}
	svc := NewService(store, nil, nil)
	svc.SetPricer(pricer)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CrmCustomer{Identity: Identity{Name: "Rivera"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if pricer.calls != 0 {
		t.Fatal("crm customers are not priced")
	}

	id, err := svc.Create(ctx, &SubcontractDetachReset{Identity: Identity{Name: "Nguyen"}, PanelQuantity: 20})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	job, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pricer.calls != 2 || !SubcontractOf(job).NetAmount.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("expected pricing on create and get, got %d calls", pricer.calls)
	}
}

func TestServiceRecordMilestoneUpserts(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()
	at := time.Date(2025, time.January, 8, 17, 0, 0, 0, time.UTC)

	if err := svc.RecordMilestone(ctx, "c1", MilestoneInspectionFailed, "t1", at); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := svc.RecordMilestone(ctx, "c1", MilestoneInspectionFailed, "t2", at.Add(time.Hour)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(store.timeline) != 1 || store.timeline[0].TicketID != "t2" {
		t.Fatalf("expected one upserted row, got %+v", store.timeline)
	}
	if err := svc.RecordMilestone(ctx, "c1", "permit_issued", "t1", at); !errors.Is(err, ErrUnknownMilestone) {
		t.Fatalf("expected ErrUnknownMilestone, got %v", err)
	}
}

func TestServiceDocuments(t *testing.T) {
	files, err := storage.NewLocal(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	store := newFakeStore()
	svc := NewService(store, files, nil)
	svc.now = func() time.Time { return time.UnixMilli(1000) }
	ctx := context.Background()

	id, err := svc.Create(ctx, &CrmCustomer{Identity: Identity{Name: "Rivera"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	doc, err := svc.UploadDocument(ctx, id, "../contract.PDF", "u1", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.FileName != "contract.PDF" || !strings.HasPrefix(doc.Path, id+"/") || !strings.HasSuffix(doc.Path, "/1000.pdf") {
		t.Fatalf("unexpected document %+v", doc)
	}
	rc, err := files.Open(ctx, storage.BucketCustomerDocuments, doc.Path)
	if err != nil {
		t.Fatalf("expected stored file, got %v", err)
	}
	rc.Close()

	if err := svc.DeleteDocument(ctx, id, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := files.Open(ctx, storage.BucketCustomerDocuments, doc.Path); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected file removed, got %v", err)
	}

	if _, err := svc.UploadDocument(ctx, "missing", "a.pdf", "u1", strings.NewReader("x")); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

type recordingPay struct {
	times []time.Time
}

func (r *recordingPay) InvalidateAt(_ context.Context, times ...time.Time) {
	r.times = append(r.times, times...)
}

func TestServiceCRMEditsInvalidatePay(t *testing.T) {
	store := newFakeStore()
	pay := &recordingPay{}
	svc := NewService(store, nil, nil)
	svc.SetPayCache(pay)
	ctx := context.Background()

	crmID, err := svc.Create(ctx, &CrmCustomer{Identity: Identity{Name: "Rivera"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	subID, err := svc.Create(ctx, &SubcontractDetachReset{Identity: Identity{Name: "Nguyen"}, PanelQuantity: 20})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(pay.times) != 0 {
		t.Fatal("a new customer has no closed installs")
	}

	if err := svc.Update(ctx, &CrmCustomer{Identity: Identity{ID: crmID, Name: "Rivera"}, SystemSizeKW: decimal.NewFromInt(9)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(pay.times) != 2 {
		t.Fatalf("expected current and previous period invalidated, got %v", pay.times)
	}

	pay.times = nil
	if err := svc.Delete(ctx, subID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(pay.times) != 0 {
		t.Fatalf("subcontract jobs carry no piece-rate, got %v", pay.times)
	}
	if err := svc.Delete(ctx, crmID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(pay.times) != 2 {
		t.Fatalf("expected delete to invalidate pay, got %v", pay.times)
	}
}
