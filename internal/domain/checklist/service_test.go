package checklist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"solarops/internal/platform/storage"
)

type fakeStore struct {
	rows    map[string]Checklist
	upserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]Checklist{}}
}

func (f *fakeStore) GetChecklist(_ context.Context, phase, ticketID string) (Checklist, error) {
	c, ok := f.rows[phase+"/"+ticketID]
	if !ok {
		return newChecklist(phase, ticketID), nil
	}
	return c, nil
}

func (f *fakeStore) UpsertChecklist(_ context.Context, c Checklist) (Checklist, error) {
	f.upserts++
	now := time.Now()
	c.UpdatedAt = &now
	f.rows[c.Phase+"/"+c.TicketID] = c
	return c, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *storage.Local) {
	t.Helper()
	files, err := storage.NewLocal(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	store := newFakeStore()
	svc := NewService(store, files, nil)
	svc.now = func() time.Time { return time.UnixMilli(1736500000000) }
	return svc, store, files
}

func TestEveryPhaseHasItemsAndBucket(t *testing.T) {
	for _, phase := range Phases {
		if len(Items(phase)) == 0 {
			t.Fatalf("phase %s has no items", phase)
		}
		if !storage.ValidBucket(Bucket(phase)) {
			t.Fatalf("phase %s maps to unknown bucket %q", phase, Bucket(phase))
		}
		if table(phase) == "" {
			t.Fatalf("phase %s has no table", phase)
		}
	}
}

func TestToggleItemUpsertsEveryChange(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.ToggleItem(ctx, PhaseInstallation, "t1", "inverter")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !v.Checked("inverter") || v.Progress.Checked != 1 {
		t.Fatalf("expected inverter checked, got %+v", v.Checklist)
	}
	v, err = svc.ToggleItem(ctx, PhaseInstallation, "t1", "inverter")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if v.Checked("inverter") {
		t.Fatal("second toggle should uncheck")
	}
	if store.upserts != 2 {
		t.Fatalf("expected an upsert per change, got %d", store.upserts)
	}
}

func TestToggleItemValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.ToggleItem(ctx, "roofing", "t1", "inverter"); !errors.Is(err, ErrUnknownPhase) {
		t.Fatalf("expected ErrUnknownPhase, got %v", err)
	}
	if _, err := svc.ToggleItem(ctx, PhaseService, "t1", "inverter"); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}

func TestUploadAndDeletePhoto(t *testing.T) {
	svc, _, files := newTestService(t)
	ctx := context.Background()

	up := Upload{Phase: PhaseSiteSurvey, TicketID: "t1", ItemID: "main_panel", FileName: "IMG_01.JPG"}
	v, obj, err := svc.UploadPhoto(ctx, up, strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if obj.Path != "t1/main_panel/1736500000000.jpg" {
		t.Fatalf("unexpected object key %q", obj.Path)
	}
	if obj.Bucket != storage.BucketSiteSurveyPhotos {
		t.Fatalf("unexpected bucket %q", obj.Bucket)
	}
	if urls := v.PhotoURLs["main_panel"]; len(urls) != 1 || urls[0] != obj.URL {
		t.Fatalf("expected photo url recorded, got %v", v.PhotoURLs)
	}

	if _, err := svc.DeletePhoto(ctx, PhaseSiteSurvey, "t1", "meter", obj.Path); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("expected path under another item to be rejected, got %v", err)
	}

	v, err = svc.DeletePhoto(ctx, PhaseSiteSurvey, "t1", "main_panel", obj.Path)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := v.PhotoURLs["main_panel"]; ok {
		t.Fatalf("expected item urls removed, got %v", v.PhotoURLs)
	}
	if _, err := files.Open(ctx, storage.BucketSiteSurveyPhotos, obj.Path); err == nil {
		t.Fatal("expected file to be deleted")
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc, store, _ := newTestService(t)
	up := Upload{Phase: PhaseReset, TicketID: "t2", ItemID: "array_after", FileName: "a.png"}
	if _, _, err := svc.UploadPhoto(context.Background(), up, strings.NewReader("")); !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("expected ErrEmptyUpload, got %v", err)
	}
	if store.upserts != 0 {
		t.Fatal("empty upload must not touch the row")
	}
}
