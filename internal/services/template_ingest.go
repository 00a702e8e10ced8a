package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/yearbookflow/internal/gcp"
	"github.com/Lllllllleong/yearbookflow/internal/models"
	"github.com/Lllllllleong/yearbookflow/internal/pdfdoc"
	"github.com/dustin/go-humanize"
)

type TemplateIngestConfig struct {
	ProjectID       string
	TemplatesBucket string
	CollectionName  string
}

type TemplateIngestFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	config          TemplateIngestConfig
}

// publishedPrefix is where optimized templates are written in the templates bucket.
const publishedPrefix = "templates/"

type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func NewTemplateIngest(ctx context.Context) (*TemplateIngestFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := TemplateIngestConfig{
		ProjectID:       projectID,
		TemplatesBucket: gcp.GetEnv("TEMPLATES_BUCKET", ""),
		CollectionName:  gcp.GetEnv("FIRESTORE_COLLECTION", "templates"),
	}
	if config.TemplatesBucket == "" {
		return nil, fmt.Errorf("TEMPLATES_BUCKET environment variable must be set")
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	f := &TemplateIngestFunction{
		firestoreClient: firestoreClient,
		storageClient:   storageClient,
		config:          config,
	}
	slog.Info("Template Ingest logic initialized.", "templatesBucket", config.TemplatesBucket)
	return f, nil
}

// Process validates an uploaded section background and publishes an optimized copy.
func (f *TemplateIngestFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	logCtx.Info("Processing new GCS object.")

	if path.Ext(e.Name) != ".pdf" {
		logCtx.Info("Not a PDF. Skipping.")
		return nil
	}
	if f.isPublished(e) {
		logCtx.Info("Event is for a published template. Skipping.")
		return nil
	}

	data, err := gcp.ReadObject(ctx, f.storageClient.Bucket(e.Bucket), e.Name)
	if err != nil {
		logCtx.Error("Failed to download template", "error", err)
		return err
	}

	fileHash := calculateHash(data)
	logCtx = logCtx.With("fileHash", fileHash, "size", humanize.Bytes(uint64(len(data))))

	existing, err := gcp.FindByField(ctx, f.firestoreClient, f.config.CollectionName, "fileHash", fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if existing != nil {
		logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", existing.Ref.ID)
		return nil // Clean exit for a duplicate
	}

	docRef, err := f.createInitialDocument(ctx, fileHash, e.Name)
	if err != nil {
		logCtx.Error("Failed to create initial Firestore document", "error", err)
		return err
	}
	logCtx = logCtx.With("templateId", docRef.ID)
	logCtx.Info("Created template document in Firestore.")

	doc, err := f.validateAndOptimize(ctx, logCtx, docRef, data)
	if err != nil {
		// Error is already logged and handled in validateAndOptimize
		return err
	}

	objectName := publishedPrefix + docRef.ID + ".pdf"
	if err := gcp.SaveToGCSAtomically(ctx, f.storageClient.Bucket(f.config.TemplatesBucket), objectName, doc.Bytes(), "application/pdf"); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to store optimized template", err)
	}

	first, _ := doc.PageSize(0)
	updates := []firestore.Update{
		{Path: "status", Value: models.StatusReady},
		{Path: "uri", Value: gcp.ObjectURI(f.config.TemplatesBucket, objectName)},
		{Path: "pageCount", Value: doc.PageCount()},
		{Path: "pageWidth", Value: first.W},
		{Path: "pageHeight", Value: first.H},
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to update status to READY", err)
	}

	logCtx.Info("Template ready.", "pageCount", doc.PageCount(), "width", first.W, "height", first.H)
	return nil
}

// isPublished reports whether e is the finalize event of an optimized template this
// function wrote itself.
func (f *TemplateIngestFunction) isPublished(e GCSEvent) bool {
	return e.Bucket == f.config.TemplatesBucket && strings.HasPrefix(e.Name, publishedPrefix)
}

func (f *TemplateIngestFunction) createInitialDocument(ctx context.Context, fileHash, filename string) (*firestore.DocumentRef, error) {
	newDoc := models.Template{
		FileHash:         fileHash,
		OriginalFilename: filename,
		Status:           models.StatusValidating,
		CreatedAt:        time.Now(),
	}
	docRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, newDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to create template document: %w", err)
	}
	return docRef, nil
}

func (f *TemplateIngestFunction) validateAndOptimize(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, data []byte) (pdfdoc.Document, error) {
	if err := pdfdoc.Validate(data); err != nil {
		return pdfdoc.Document{}, f.handleError(ctx, logCtx, docRef, "failed to validate PDF", err)
	}
	doc, err := pdfdoc.Load(data)
	if err != nil {
		return pdfdoc.Document{}, f.handleError(ctx, logCtx, docRef, "failed to read page dimensions", err)
	}
	optimized, err := pdfdoc.Optimize(doc)
	if err != nil {
		return pdfdoc.Document{}, f.handleError(ctx, logCtx, docRef, "failed to optimize PDF", err)
	}
	logCtx.Info("Template validated and optimized.",
		"before", humanize.Bytes(uint64(len(data))),
		"after", humanize.Bytes(uint64(len(optimized.Bytes()))),
	)
	return optimized, nil
}

func (f *TemplateIngestFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := gcp.UpdateStatus(ctx, docRef, models.StatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s", fullError)
}
