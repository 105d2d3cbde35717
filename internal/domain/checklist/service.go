package checklist

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"solarops/internal/platform/realtime"
	"solarops/internal/platform/storage"
)

type Service struct {
	store   StoreAPI
	files   storage.Store
	changes realtime.Publisher
	now     func() time.Time
}

func NewService(store StoreAPI, files storage.Store, changes realtime.Publisher) *Service {
	return &Service{store: store, files: files, changes: changes, now: time.Now}
}

func view(c Checklist) View {
	return View{Checklist: c, Items: Items(c.Phase), Progress: c.Progress()}
}

func (s *Service) Get(ctx context.Context, phase, ticketID string) (View, error) {
	if !ValidPhase(phase) {
		return View{}, ErrUnknownPhase
	}
	c, err := s.store.GetChecklist(ctx, phase, ticketID)
	if err != nil {
		return View{}, err
	}
	return view(c), nil
}

func (s *Service) ToggleItem(ctx context.Context, phase, ticketID, itemID string) (View, error) {
	c, err := s.load(ctx, phase, ticketID, itemID)
	if err != nil {
		return View{}, err
	}
	c.Toggle(itemID)
	return s.save(ctx, c)
}

// UploadPhoto stores the photo under {ticketId}/{itemId}/{ts}.{ext} in the phase bucket.
func (s *Service) UploadPhoto(ctx context.Context, up Upload, r io.Reader) (View, storage.Object, error) {
	c, err := s.load(ctx, up.Phase, up.TicketID, up.ItemID)
	if err != nil {
		return View{}, storage.Object{}, err
	}
	bucket := Bucket(up.Phase)
	key := storage.ObjectKey(up.TicketID, up.ItemID, s.now(), filepath.Ext(up.FileName))
	obj, err := s.files.Put(ctx, bucket, key, r)
	if err != nil {
		return View{}, storage.Object{}, fmt.Errorf("store photo: %w", err)
	}
	if obj.Size == 0 {
		s.discard(ctx, bucket, obj.Path)
		return View{}, storage.Object{}, ErrEmptyUpload
	}
	c.AddPhoto(up.ItemID, obj.URL)
	out, err := s.save(ctx, c)
	if err != nil {
		s.discard(ctx, bucket, obj.Path)
		return View{}, storage.Object{}, err
	}
	return out, obj, nil
}

// DeletePhoto removes the file by its stored path and drops its URL from the item.
func (s *Service) DeletePhoto(ctx context.Context, phase, ticketID, itemID, objectPath string) (View, error) {
	c, err := s.load(ctx, phase, ticketID, itemID)
	if err != nil {
		return View{}, err
	}
	if !strings.HasPrefix(objectPath, ticketID+"/"+itemID+"/") {
		return View{}, ErrPhotoNotFound
	}
	bucket := Bucket(phase)
	if !c.RemovePhoto(itemID, s.files.URL(bucket, objectPath)) {
		return View{}, ErrPhotoNotFound
	}
	out, err := s.save(ctx, c)
	if err != nil {
		return View{}, err
	}
	s.discard(ctx, bucket, objectPath)
	return out, nil
}

func (s *Service) load(ctx context.Context, phase, ticketID, itemID string) (Checklist, error) {
	if !ValidPhase(phase) {
		return Checklist{}, ErrUnknownPhase
	}
	if !ValidItem(phase, itemID) {
		return Checklist{}, ErrUnknownItem
	}
	return s.store.GetChecklist(ctx, phase, ticketID)
}

func (s *Service) save(ctx context.Context, c Checklist) (View, error) {
	saved, err := s.store.UpsertChecklist(ctx, c)
	if err != nil {
		return View{}, fmt.Errorf("save %s checklist: %w", c.Phase, err)
	}
	realtime.Notify(ctx, s.changes, table(c.Phase), realtime.ActionUpdate, c.TicketID)
	return view(saved), nil
}

func (s *Service) discard(ctx context.Context, bucket, objectPath string) {
	if err := s.files.Delete(ctx, bucket, objectPath); err != nil {
		slog.Warn("photo delete failed", "bucket", bucket, "path", objectPath, "err", err)
	}
}
