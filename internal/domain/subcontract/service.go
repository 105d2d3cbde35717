package subcontract

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"solarops/internal/domain/customer"
	"solarops/internal/platform/realtime"
)

// Jobs is the customers table seen through its service, which prices subcontract rows.
type Jobs interface {
	Create(ctx context.Context, job customer.Job) (string, error)
	Get(ctx context.Context, customerID string) (customer.Job, error)
	List(ctx context.Context, filter customer.ListFilter) ([]customer.Job, int, error)
	Update(ctx context.Context, job customer.Job) error
}

type Service struct {
	store   StoreAPI
	jobs    Jobs
	changes realtime.Publisher
	loc     *time.Location
	now     func() time.Time
}

func NewService(store StoreAPI, jobs Jobs, changes realtime.Publisher, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, jobs: jobs, changes: changes, loc: loc, now: time.Now}
}

func (s *Service) CreateJob(ctx context.Context, job customer.Job) (string, error) {
	sub := customer.SubcontractOf(job)
	if sub == nil {
		return "", ErrNotSubcontract
	}
	if sub.Status == "" {
		sub.Status = StatusPending
	}
	if err := SetStatus(job, sub.Status, s.today()); err != nil {
		return "", err
	}
	return s.jobs.Create(ctx, job)
}

func (s *Service) GetJob(ctx context.Context, jobID string) (customer.Job, Ledger, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, Ledger{}, err
	}
	ledger, err := Compute(job)
	if err != nil {
		return nil, Ledger{}, err
	}
	return job, ledger, nil
}

func (s *Service) ListJobs(ctx context.Context, filter customer.ListFilter) ([]customer.Job, int, error) {
	if filter.Kind == customer.KindCRM {
		return nil, 0, ErrNotSubcontract
	}
	filter.SubcontractOnly = true
	return s.jobs.List(ctx, filter)
}

// UpdateJob saves new inputs; the status change rules still apply to the submitted status.
func (s *Service) UpdateJob(ctx context.Context, job customer.Job) error {
	sub := customer.SubcontractOf(job)
	if sub == nil {
		return ErrNotSubcontract
	}
	if sub.Status != "" {
		if err := SetStatus(job, sub.Status, s.today()); err != nil {
			return err
		}
	}
	return s.jobs.Update(ctx, job)
}

func (s *Service) UpdateStatus(ctx context.Context, jobID, status string) (customer.Job, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := SetStatus(job, status, s.today()); err != nil {
		return nil, err
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Invoice writes the job's invoice PDF to w.
func (s *Service) Invoice(ctx context.Context, jobID string, w io.Writer) error {
	job, ledger, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	var contractor *Contractor
	if id := customer.SubcontractOf(job).ContractorID; id != "" {
		contractor, err = s.store.GetContractor(ctx, id)
		if err != nil && !errors.Is(err, ErrContractorNotFound) {
			return err
		}
	}
	return WriteInvoice(w, job, contractor, ledger)
}

func (s *Service) ListContractors(ctx context.Context, activeOnly bool) ([]Contractor, error) {
	return s.store.ListContractors(ctx, activeOnly)
}

func (s *Service) CreateContractor(ctx context.Context, c Contractor) (string, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return "", ErrContractorName
	}
	id, err := s.store.CreateContractor(ctx, c)
	if err != nil {
		return "", err
	}
	realtime.Notify(ctx, s.changes, ContractorsTable, realtime.ActionInsert, id)
	return id, nil
}

func (s *Service) UpdateContractor(ctx context.Context, c Contractor) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrContractorName
	}
	if err := s.store.UpdateContractor(ctx, c); err != nil {
		return err
	}
	realtime.Notify(ctx, s.changes, ContractorsTable, realtime.ActionUpdate, c.ID)
	return nil
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}
