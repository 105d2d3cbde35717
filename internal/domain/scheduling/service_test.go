package scheduling

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"solarops/internal/domain/checklist"
	"solarops/internal/domain/customer"
	"solarops/internal/domain/timeclock"
	"solarops/internal/platform/functions"
	"solarops/internal/platform/storage"
)

type fakeStore struct {
	tickets         map[string]Ticket
	nextID          int
	progressUpdates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tickets: map[string]Ticket{}}
}

func (f *fakeStore) CreateTicket(_ context.Context, t Ticket) (string, error) {
	f.nextID++
	t.ID = "t" + strconv.Itoa(f.nextID)
	t.CustomerName = "Jordan Rivera"
	f.tickets[t.ID] = t
	return t.ID, nil
}

func (f *fakeStore) GetTicket(_ context.Context, ticketID string) (Ticket, error) {
	t, ok := f.tickets[ticketID]
	if !ok {
		return Ticket{}, ErrTicketNotFound
	}
	return t, nil
}

func (f *fakeStore) ListTickets(context.Context, ListFilter) ([]Ticket, int, error) {
	var out []Ticket
	for _, t := range f.tickets {
		out = append(out, t)
	}
	return out, len(out), nil
}

func (f *fakeStore) UpdateTicket(_ context.Context, t Ticket) error {
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeStore) UpdateProgress(_ context.Context, t Ticket) error {
	f.progressUpdates++
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeStore) UpdateWorkPerformed(_ context.Context, ticketID, text string) error {
	t := f.tickets[ticketID]
	t.WorkPerformed = text
	f.tickets[ticketID] = t
	return nil
}

func (f *fakeStore) DeleteTicket(_ context.Context, ticketID string) error {
	delete(f.tickets, ticketID)
	return nil
}

type fakeClock struct {
	clockIns []timeclock.ClockInRequest
	closed   []string
}

func (f *fakeClock) EnsureClockedIn(_ context.Context, req timeclock.ClockInRequest) (bool, error) {
	f.clockIns = append(f.clockIns, req)
	return true, nil
}

func (f *fakeClock) CloseOpenForCustomer(_ context.Context, employeeID, customerID string) (int, error) {
	f.closed = append(f.closed, employeeID+"@"+customerID)
	return 1, nil
}

type failingTimeline struct {
	calls int
}

func (f *failingTimeline) RecordMilestone(context.Context, string, string, string, time.Time) error {
	f.calls++
	return errors.New("timeline unavailable")
}

type fakePDF struct {
	requests []string
}

func (f *fakePDF) GenerateSiteSurveyPDF(_ context.Context, customerID, ticketID string) (functions.Result, error) {
	f.requests = append(f.requests, customerID+"/"+ticketID)
	return functions.Result{Success: true, FileName: "survey.pdf"}, nil
}

type fakeQueue struct {
	jobs []func(context.Context) (any, error)
}

func (f *fakeQueue) Enqueue(_ string, run func(context.Context) (any, error)) {
	f.jobs = append(f.jobs, run)
}

type fakeNotifier struct {
	to []string
}

func (f *fakeNotifier) Create(_ context.Context, userID, _, _, _ string) error {
	f.to = append(f.to, userID)
	return nil
}

func TestToggleRunsClockInForActor(t *testing.T) {
	store := newFakeStore()
	store.tickets["t1"] = Ticket{ID: "t1", CustomerID: "c1", TicketType: TypeDetach, Status: StatusScheduled}
	clock := &fakeClock{}
	svc := NewService(store, HookRunner{Clock: clock}, nil, nil)

	geo := &timeclock.Geo{Latitude: 36.7, Longitude: -119.8}
	res, err := svc.Toggle(context.Background(), "t1", ToggleRequest{Step: StepArrived, ActorID: "e7", Location: geo})
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if len(clock.clockIns) != 1 || clock.clockIns[0].EmployeeID != "e7" || clock.clockIns[0].CustomerID != "c1" || clock.clockIns[0].Location != geo {
		t.Fatalf("unexpected clock-ins %+v", clock.clockIns)
	}
	if len(res.HookResults) != 1 || !res.HookResults[0].OK {
		t.Fatalf("unexpected hook results %+v", res.HookResults)
	}
	if store.tickets["t1"].ArrivedAt == nil {
		t.Fatal("expected arrival saved")
	}

	if _, err := svc.Toggle(context.Background(), "t1", ToggleRequest{Step: StepArrived, ActorID: "e7"}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(clock.clockIns) != 1 {
		t.Fatal("clearing must not clock in")
	}
}

func TestCloseHookFailuresAreIsolated(t *testing.T) {
	store := newFakeStore()
	store.tickets["t1"] = Ticket{ID: "t1", CustomerID: "c1", TicketType: TypeSiteSurvey}
	clock := &fakeClock{}
	timeline := &failingTimeline{}
	pdf := &fakePDF{}
	queue := &fakeQueue{}
	svc := NewService(store, HookRunner{Clock: clock, Timeline: timeline, SurveyPDF: pdf, Queue: queue}, nil, nil)

	res, err := svc.Toggle(context.Background(), "t1", ToggleRequest{Step: StepClosed, CloseReason: ReasonSiteSurveyComplete, ActorID: "e7"})
	if err != nil {
		t.Fatalf("a failing hook must not fail the close: %v", err)
	}
	if store.tickets["t1"].ClosedAt == nil {
		t.Fatal("close must be saved before hooks run")
	}
	if timeline.calls != 1 || res.HookResults[0].OK {
		t.Fatalf("expected failed timeline hook, got %+v", res.HookResults)
	}
	if len(clock.closed) != 1 || clock.closed[0] != "e7@c1" {
		t.Fatalf("expected open entries closed after timeline failure, got %v", clock.closed)
	}
	if len(queue.jobs) != 1 || len(pdf.requests) != 0 {
		t.Fatal("expected pdf request queued, not run inline")
	}
	details, err := queue.jobs[0](context.Background())
	if err != nil || details.(functions.Result).FileName != "survey.pdf" {
		t.Fatalf("unexpected queued job result %v err=%v", details, err)
	}
	if pdf.requests[0] != "c1/t1" {
		t.Fatalf("unexpected pdf request %v", pdf.requests)
	}
}

func TestBeginGateDoesNotSave(t *testing.T) {
	store := newFakeStore()
	store.tickets["t1"] = Ticket{ID: "t1", CustomerID: "c1", TicketType: TypeInstallation}
	clock := &fakeClock{}
	svc := NewService(store, HookRunner{Clock: clock}, nil, nil)

	res, err := svc.Toggle(context.Background(), "t1", ToggleRequest{Step: StepBegin, ActorID: "e1"})
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if res.ChecklistPhase != checklist.PhaseInstallation || store.progressUpdates != 0 || len(clock.clockIns) != 0 {
		t.Fatalf("expected checklist prompt only, got %+v updates=%d", res.Outcome, store.progressUpdates)
	}
}

func TestDepartingBlockedWithoutWork(t *testing.T) {
	store := newFakeStore()
	store.tickets["t1"] = Ticket{ID: "t1", TicketType: TypeService}
	svc := NewService(store, HookRunner{}, nil, nil)

	if _, err := svc.Toggle(context.Background(), "t1", ToggleRequest{Step: StepDeparting}); !errors.Is(err, ErrWorkPerformedRequired) {
		t.Fatalf("expected ErrWorkPerformedRequired, got %v", err)
	}
	if _, err := svc.SetWorkPerformed(context.Background(), "t1", " Reseated MC4 connectors "); err != nil {
		t.Fatalf("set work: %v", err)
	}
	if _, err := svc.Toggle(context.Background(), "t1", ToggleRequest{Step: StepDeparting}); err != nil {
		t.Fatalf("departing after work recorded: %v", err)
	}
	if _, err := svc.SetWorkPerformed(context.Background(), "t1", ""); err != nil {
		t.Fatalf("clear work: %v", err)
	}
	if store.tickets["t1"].DepartingAt == nil {
		t.Fatal("departing_at must survive clearing work performed")
	}
}

func TestCreateAndUpdateNotifyAssignees(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := NewService(store, HookRunner{}, notifier, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, TicketInput{
		CustomerID:    "c1",
		TicketType:    TypeInstallation,
		ScheduledDate: "2025-01-14",
		WindowStart:   "08:00",
		WindowEnd:     "12:00",
		TechnicianIDs: []string{"e1", " e2 ", "e1", ""},
		PVInstallerID: "e3",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Priority != PriorityNormal || created.Status != StatusScheduled {
		t.Fatalf("expected defaults, got %+v", created)
	}
	if len(created.TechnicianIDs) != 2 {
		t.Fatalf("expected deduplicated technicians, got %v", created.TechnicianIDs)
	}
	if len(notifier.to) != 3 {
		t.Fatalf("expected 3 notifications, got %v", notifier.to)
	}

	notifier.to = nil
	_, err = svc.Update(ctx, created.ID, TicketInput{
		CustomerID:    "c1",
		TicketType:    TypeInstallation,
		TechnicianIDs: []string{"e2", "e4"},
		PVInstallerID: "e3",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(notifier.to) != 1 || notifier.to[0] != "e4" {
		t.Fatalf("expected only the new technician notified, got %v", notifier.to)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore(), HookRunner{}, nil, nil)
	tests := []struct {
		name string
		in   TicketInput
		want error
	}{
		{"customer", TicketInput{TicketType: TypeService}, ErrCustomerRequired},
		{"type", TicketInput{CustomerID: "c1", TicketType: "roofing"}, ErrInvalidTicketType},
		{"priority", TicketInput{CustomerID: "c1", TicketType: TypeService, Priority: "asap"}, ErrInvalidPriority},
		{"date", TicketInput{CustomerID: "c1", TicketType: TypeService, ScheduledDate: "01/14/2025"}, ErrInvalidSchedule},
		{"window", TicketInput{CustomerID: "c1", TicketType: TypeService, WindowStart: "13:00", WindowEnd: "09:00"}, ErrInvalidSchedule},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

type fakeChecklists struct{}

func (fakeChecklists) Get(_ context.Context, phase, ticketID string) (checklist.View, error) {
	c := checklist.Checklist{TicketID: ticketID, Phase: phase, CheckedPhotos: []string{"roof_overview"}, PhotoURLs: map[string][]string{"roof_overview": {"/files/a.jpg"}}}
	return checklist.View{Checklist: c, Items: checklist.Items(phase), Progress: c.Progress()}, nil
}

type fakeDocs struct {
	attached []customer.Document
}

func (f *fakeDocs) AttachDocument(_ context.Context, customerID, fileName string, obj storage.Object) (customer.Document, error) {
	doc := customer.Document{CustomerID: customerID, FileName: fileName, Path: obj.Path, URL: obj.URL, Size: obj.Size}
	f.attached = append(f.attached, doc)
	return doc, nil
}

func TestSurveyReportStoresAndAttachesPDF(t *testing.T) {
	files, err := storage.NewLocal(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	store := newFakeStore()
	closed := testNow
	store.tickets["t1"] = Ticket{ID: "t1", CustomerID: "c1", CustomerName: "Jordan Rivera", TicketType: TypeSiteSurvey, ClosedAt: &closed, CloseReason: ReasonSiteSurveyComplete}
	store.tickets["t2"] = Ticket{ID: "t2", CustomerID: "c1", TicketType: TypeInstallation}
	docs := &fakeDocs{}
	reports := NewSurveyReports(store, fakeChecklists{}, docs, files)
	reports.now = func() time.Time { return testNow }

	res, err := reports.GenerateSiteSurvey(context.Background(), "c1", "t1")
	if err != nil || !res.Success {
		t.Fatalf("generate: %+v err=%v", res, err)
	}
	if res.FileName != "site-survey-2025-01-10.pdf" || len(docs.attached) != 1 {
		t.Fatalf("unexpected result %+v attached=%v", res, docs.attached)
	}
	rc, err := files.Open(context.Background(), storage.BucketCustomerDocuments, docs.attached[0].Path)
	if err != nil {
		t.Fatalf("open stored pdf: %v", err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected a pdf document")
	}

	res, err = reports.GenerateSiteSurvey(context.Background(), "c1", "t2")
	if !errors.Is(err, ErrNotSiteSurvey) || res.Success || res.Error == "" {
		t.Fatalf("expected failure result for non-survey ticket, got %+v err=%v", res, err)
	}
	if _, err := reports.GenerateSiteSurvey(context.Background(), "c9", "t1"); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected customer mismatch to be not found, got %v", err)
	}
}

type recordingPay struct {
	times []time.Time
}

func (r *recordingPay) InvalidateAt(_ context.Context, times ...time.Time) {
	r.times = append(r.times, times...)
}

func TestInstallationChangesInvalidatePay(t *testing.T) {
	store := newFakeStore()
	store.tickets["t1"] = Ticket{ID: "t1", CustomerID: "c1", TicketType: TypeInstallation, TechnicianIDs: []string{"e1"}}
	store.tickets["t2"] = Ticket{ID: "t2", CustomerID: "c1", TicketType: TypeService}
	pay := &recordingPay{}
	svc := NewService(store, HookRunner{}, nil, nil)
	svc.SetPayCache(pay)
	svc.now = func() time.Time { return testNow }
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, "t1", ToggleRequest{Step: StepArrived, ActorID: "e1"}); err != nil {
		t.Fatalf("arrive: %v", err)
	}
	if len(pay.times) != 0 {
		t.Fatalf("an open installation carries no pay, got %v", pay.times)
	}

	if _, err := svc.Toggle(ctx, "t1", ToggleRequest{Step: StepClosed, CloseReason: ReasonInstallComplete, ActorID: "e1"}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(pay.times) != 1 || !pay.times[0].Equal(testNow) {
		t.Fatalf("expected invalidation at close time, got %v", pay.times)
	}

	pay.times = nil
	if _, err := svc.Update(ctx, "t1", TicketInput{CustomerID: "c1", TicketType: TypeInstallation, TechnicianIDs: []string{"e2"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(pay.times) == 0 {
		t.Fatal("reassigning a closed installation must invalidate pay")
	}

	pay.times = nil
	if _, err := svc.Toggle(ctx, "t1", ToggleRequest{Step: StepClosed, ActorID: "e1"}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(pay.times) != 1 || !pay.times[0].Equal(testNow) {
		t.Fatalf("expected invalidation of the old close period, got %v", pay.times)
	}

	pay.times = nil
	if _, err := svc.Toggle(ctx, "t2", ToggleRequest{Step: StepClosed, CloseReason: ReasonServiceComplete, ActorID: "e1"}); err != nil {
		t.Fatalf("close service: %v", err)
	}
	if len(pay.times) != 0 {
		t.Fatalf("service tickets carry no piece-rate, got %v", pay.times)
	}
}
