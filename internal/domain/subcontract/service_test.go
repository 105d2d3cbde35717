package subcontract

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"solarops/internal/domain/customer"
)

type fakeJobs struct {
	jobs   map[string]customer.Job
	filter customer.ListFilter
}

func (f *fakeJobs) Create(_ context.Context, job customer.Job) (string, error) {
	job.Base().ID = "j1"
	LedgerPricer{}.Price(job)
	f.jobs["j1"] = job
	return "j1", nil
}

func (f *fakeJobs) Get(_ context.Context, id string) (customer.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, customer.ErrCustomerNotFound
	}
	return job, nil
}

func (f *fakeJobs) List(_ context.Context, filter customer.ListFilter) ([]customer.Job, int, error) {
	f.filter = filter
	return nil, 0, nil
}

func (f *fakeJobs) Update(_ context.Context, job customer.Job) error {
	LedgerPricer{}.Price(job)
	f.jobs[job.Base().ID] = job
	return nil
}

type fakeStore struct {
	contractors map[string]Contractor
}

func (f *fakeStore) ListContractors(context.Context, bool) ([]Contractor, error) {
	return nil, nil
}

func (f *fakeStore) GetContractor(_ context.Context, id string) (*Contractor, error) {
	c, ok := f.contractors[id]
	if !ok {
		return nil, ErrContractorNotFound
	}
	return &c, nil
}

func (f *fakeStore) CreateContractor(_ context.Context, c Contractor) (string, error) {
	f.contractors["k1"] = c
	return "k1", nil
}

func (f *fakeStore) UpdateContractor(context.Context, Contractor) error {
	return nil
}

func newTestService() (*Service, *fakeJobs, *fakeStore) {
	jobs := &fakeJobs{jobs: map[string]customer.Job{}}
	store := &fakeStore{contractors: map[string]Contractor{"k1": {ID: "k1", Name: "Sunline Crew"}}}
	svc := NewService(store, jobs, nil, time.UTC)
	svc.now = func() time.Time { return time.Date(2025, time.April, 2, 15, 0, 0, 0, time.UTC) }
	return svc, jobs, store
}

func TestServiceCreateDefaultsStatusAndPrices(t *testing.T) {
	svc, jobs, _ := newTestService()
	id, err := svc.CreateJob(context.Background(), &customer.SubcontractNewInstall{
		Identity:     customer.Identity{Name: "Lopez"},
		SystemSizeKW: dec("10"),
		PricePerWatt: dec("2.80"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	job := jobs.jobs[id].(*customer.SubcontractNewInstall)
	if job.Status != StatusPending || !job.GrossAmount.Equal(dec("28000")) {
		t.Fatalf("unexpected job %+v", job.Subcontract)
	}

	if _, err := svc.CreateJob(context.Background(), &customer.CrmCustomer{}); !errors.Is(err, ErrNotSubcontract) {
		t.Fatalf("expected ErrNotSubcontract, got %v", err)
	}
}

func TestServiceUpdateStatusStampsToday(t *testing.T) {
	svc, jobs, _ := newTestService()
	jobs.jobs["j1"] = &customer.SubcontractDetachReset{Identity: customer.Identity{ID: "j1"}, PanelQuantity: 10, PricePerPanel: dec("80")}

	job, err := svc.UpdateStatus(context.Background(), "j1", StatusInvoiceSent)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if customer.SubcontractOf(job).InvoiceSentDate != "2025-04-02" {
		t.Fatalf("expected invoice date 2025-04-02, got %+v", customer.SubcontractOf(job))
	}
	if _, err := svc.UpdateStatus(context.Background(), "j1", StatusScheduled); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestServiceListOnlySubcontractJobs(t *testing.T) {
	svc, jobs, _ := newTestService()
	if _, _, err := svc.ListJobs(context.Background(), customer.ListFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !jobs.filter.SubcontractOnly {
		t.Fatal("expected subcontract-only filter")
	}
	if _, _, err := svc.ListJobs(context.Background(), customer.ListFilter{Kind: customer.KindCRM}); !errors.Is(err, ErrNotSubcontract) {
		t.Fatalf("expected ErrNotSubcontract, got %v", err)
	}
}

func TestServiceInvoice(t *testing.T) {
	svc, jobs, _ := newTestService()
	jobs.jobs["j1"] = &customer.SubcontractNewInstall{
		Identity:     customer.Identity{ID: "j1", Name: "Lopez", Address: "12 Elm"},
		Subcontract:  customer.Subcontract{ContractorID: "k1", Adders: []customer.Adder{{Name: "Trench", Amount: dec("500"), Type: customer.AdderFixed}}},
		SystemSizeKW: dec("10"),
		PricePerWatt: dec("2.80"),
	}
	var buf bytes.Buffer
	if err := svc.Invoice(context.Background(), "j1", &buf); err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF output")
	}
}

func TestServiceCreateContractorRequiresName(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.CreateContractor(context.Background(), Contractor{Name: "  "}); !errors.Is(err, ErrContractorName) {
		t.Fatalf("expected ErrContractorName, got %v", err)
	}
}
