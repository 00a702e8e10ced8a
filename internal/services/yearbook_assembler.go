package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/yearbookflow/internal/assets"
	"github.com/Lllllllleong/yearbookflow/internal/gcp"
	"github.com/Lllllllleong/yearbookflow/internal/models"
	"github.com/Lllllllleong/yearbookflow/internal/pdfdoc"
	"github.com/dustin/go-humanize"
	"google.golang.org/api/iterator"
)

// YearbookAssemblerConfig holds configuration for the assembler service.
type YearbookAssemblerConfig struct {
	ProjectID          string
	SectionsBucket     string // Source bucket
	YearbooksBucket    string // Destination bucket
	SectionsCollection string
	YearbookCollection string
	CoverPDF           string // Optional, any asset reference
	AssetsDir          string
}

// YearbookAssemblerFunction holds dependencies for the assembly logic.
type YearbookAssemblerFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	assets          assets.Source
	config          YearbookAssemblerConfig
}

// NewYearbookAssembler creates a new YearbookAssemblerFunction instance.
func NewYearbookAssembler(ctx context.Context) (*YearbookAssemblerFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := YearbookAssemblerConfig{
		ProjectID:          projectID,
		SectionsBucket:     gcp.GetEnv("SECTIONS_BUCKET", ""),
		YearbooksBucket:    gcp.GetEnv("YEARBOOKS_BUCKET", ""),
		SectionsCollection: gcp.GetEnv("FIRESTORE_COLLECTION", "sections"),
		YearbookCollection: gcp.GetEnv("YEARBOOK_COLLECTION", "yearbooks"),
		CoverPDF:           gcp.GetEnv("COVER_PDF", ""),
		AssetsDir:          gcp.GetEnv("ASSETS_DIR", "assets"),
	}
	if config.SectionsBucket == "" || config.YearbooksBucket == "" {
		return nil, fmt.Errorf("SECTIONS_BUCKET and YEARBOOKS_BUCKET must be set")
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &YearbookAssemblerFunction{
		storageClient:   storageClient,
		firestoreClient: firestoreClient,
		assets:          newAssetRouter(storageClient, config.AssetsDir),
		config:          config,
	}, nil
}

// Process merges the stored sections of one user into a single yearbook PDF.
func (f *YearbookAssemblerFunction) Process(ctx context.Context, req *models.YearbookAssemblerRequest) (*models.YearbookAssemblerResponse, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	logCtx := slog.With("email", req.Email, "executionId", req.ExecutionID)
	logCtx.Info("Starting yearbook assembly.")

	yearbookRef := f.firestoreClient.Collection(f.config.YearbookCollection).Doc(sanitizeFileName(req.Email))
	record := models.Yearbook{
		Email:               req.Email,
		Status:              models.StatusGenerating,
		WorkflowExecutionID: req.ExecutionID,
		CreatedAt:           time.Now(),
	}
	if _, err := yearbookRef.Set(ctx, record); err != nil {
		logCtx.Error("Failed to create yearbook record", "error", err)
		return nil, fmt.Errorf("failed to create yearbook record: %w", err)
	}

	// --- 1. List the sections in generation order ---
	sections, err := f.listSections(ctx, req.Email)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, yearbookRef, "failed to list sections", err)
	}
	if len(sections) == 0 {
		return nil, f.handleError(ctx, logCtx, yearbookRef, "no sections to assemble", pdfdoc.ErrNoPages)
	}
	logCtx.Info("Found sections for assembly.", "sectionCount", len(sections))

	// --- 2. Read the cover and every section ---
	var docs []pdfdoc.Document
	if f.config.CoverPDF != "" {
		cover, err := f.loadPDF(ctx, f.config.CoverPDF)
		if err != nil {
			return nil, f.handleError(ctx, logCtx, yearbookRef, "failed to load cover", err)
		}
		docs = append(docs, cover)
	}
	bucket := f.storageClient.Bucket(f.config.SectionsBucket)
	for _, s := range sections {
		logCtx.Info("Appending section.", "section", s.Headtitle, "gcsObject", s.ObjectName)
		data, err := gcp.ReadObject(ctx, bucket, s.ObjectName)
		if err != nil {
			return nil, f.handleError(ctx, logCtx, yearbookRef, "failed to read section", err)
		}
		doc, err := pdfdoc.Load(data)
		if err != nil {
			return nil, f.handleError(ctx, logCtx, yearbookRef, fmt.Sprintf("section %q is not a valid PDF", s.Headtitle), err)
		}
		docs = append(docs, doc)
	}

	// --- 3. Merge, optimize and store ---
	merged, err := pdfdoc.Merge(docs...)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, yearbookRef, "failed to merge sections", err)
	}
	if optimized, err := pdfdoc.Optimize(merged); err != nil {
		logCtx.Warn("Optimizing yearbook failed, uploading unoptimized.", "error", err)
	} else {
		merged = optimized
	}

	objectName := fmt.Sprintf("%s/yearbook.pdf", req.Email)
	if err := gcp.UploadWithRetry(ctx, f.storageClient.Bucket(f.config.YearbooksBucket), objectName, merged.Bytes(), "application/pdf"); err != nil {
		return nil, f.handleError(ctx, logCtx, yearbookRef, "failed to upload yearbook", err)
	}
	uri := gcp.ObjectURI(f.config.YearbooksBucket, objectName)

	updates := []firestore.Update{
		{Path: "status", Value: models.StatusReady},
		{Path: "uri", Value: uri},
		{Path: "sectionCount", Value: len(sections)},
		{Path: "pageCount", Value: merged.PageCount()},
	}
	if _, err := yearbookRef.Update(ctx, updates); err != nil {
		return nil, f.handleError(ctx, logCtx, yearbookRef, "failed to update status to READY", err)
	}

	logCtx.Info("Yearbook assembly complete.", "uri", uri, "pages", merged.PageCount(), "size", humanize.Bytes(uint64(len(merged.Bytes()))))
	return &models.YearbookAssemblerResponse{
		Status:       "success",
		YearbookURI:  uri,
		SectionCount: len(sections),
		PageCount:    merged.PageCount(),
	}, nil
}

func (f *YearbookAssemblerFunction) listSections(ctx context.Context, email string) ([]models.Section, error) {
	iter := f.firestoreClient.Collection(f.config.SectionsCollection).
		Where("email", "==", email).
		OrderBy("position", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var sections []models.Section
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var s models.Section
		if err := snap.DataTo(&s); err != nil {
			return nil, fmt.Errorf("failed to read section %s: %w", snap.Ref.ID, err)
		}
		if s.ObjectName == "" || s.Status != models.StatusReady {
			continue
		}
		sections = append(sections, s)
	}
	return sections, nil
}

func (f *YearbookAssemblerFunction) loadPDF(ctx context.Context, ref string) (pdfdoc.Document, error) {
	data, err := f.assets.Open(ctx, ref)
	if err != nil {
		return pdfdoc.Document{}, err
	}
	return pdfdoc.Load(data)
}

func (f *YearbookAssemblerFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := gcp.UpdateStatus(ctx, docRef, models.StatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s", fullError)
}
