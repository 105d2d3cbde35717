package customer

import "context"

type StoreAPI interface {
	CreateJob(ctx context.Context, job Job) (string, error)
	GetJob(ctx context.Context, customerID string) (Job, error)
	ListJobs(ctx context.Context, filter ListFilter) ([]Job, int, error)
	UpdateJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, customerID string) error
	UpsertTimeline(ctx context.Context, entry TimelineEntry) error
	ListTimeline(ctx context.Context, customerID string) ([]TimelineEntry, error)
	CreateDocument(ctx context.Context, doc Document) (Document, error)
	GetDocument(ctx context.Context, customerID, documentID string) (*Document, error)
	ListDocuments(ctx context.Context, customerID string) ([]Document, error)
	DeleteDocument(ctx context.Context, customerID, documentID string) error
}
