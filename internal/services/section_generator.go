package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"github.com/Lllllllleong/yearbookflow/internal/assets"
	"github.com/Lllllllleong/yearbookflow/internal/gcp"
	"github.com/Lllllllleong/yearbookflow/internal/locks"
	"github.com/Lllllllleong/yearbookflow/internal/models"
	"github.com/Lllllllleong/yearbookflow/internal/pdfdoc"
	"github.com/Lllllllleong/yearbookflow/internal/preview"
	"github.com/Lllllllleong/yearbookflow/internal/yearbook"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
)

// DefaultHeadtitle groups photos uploaded without a headtitle.
const DefaultHeadtitle = "No Headtitle"

// ErrInvalidRequest marks a request the caller has to fix.
var ErrInvalidRequest = errors.New("invalid request")

type SectionGeneratorConfig struct {
	ProjectID        string
	SectionsBucket   string
	CollectionName   string
	WorkflowID       string
	WorkflowLocation string
	Assets           yearbook.AssetConfig
	AssetsDir        string
	Parallelism      int
	RedisAddr        string
	RedisPassword    string
	LockTTL          time.Duration
	PreviewDPI       float64
}

type SectionGeneratorFunction struct {
	storageClient    *storage.Client
	firestoreClient  *firestore.Client
	executionsClient *executions.Client
	locker           locks.Locker
	kit              *yearbook.Kit
	images           assets.Source
	config           SectionGeneratorConfig
}

func NewSectionGenerator(ctx context.Context) (*SectionGeneratorFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	assetCfg, assetsDir := loadAssetConfig()
	config := SectionGeneratorConfig{
		ProjectID:        projectID,
		SectionsBucket:   gcp.GetEnv("SECTIONS_BUCKET", ""),
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "sections"),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", "yearbook-assembly-orchestrator"),
		Assets:           assetCfg,
		AssetsDir:        assetsDir,
		Parallelism:      envInt("PARALLELISM", 4),
		RedisAddr:        gcp.GetEnv("REDIS_ADDR", ""),
		RedisPassword:    gcp.GetEnv("REDIS_PASSWORD", ""),
		LockTTL:          time.Duration(envInt("LOCK_TTL_SECONDS", 540)) * time.Second,
		PreviewDPI:       preview.DefaultDPI,
	}
	if config.SectionsBucket == "" {
		return nil, fmt.Errorf("SECTIONS_BUCKET environment variable must be set")
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	executionsClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}

	router := newAssetRouter(storageClient, config.AssetsDir)
	kit, err := loadKit(ctx, router, config.Assets)
	if err != nil {
		return nil, err
	}

	var locker locks.Locker = locks.NoopLocker{}
	if config.RedisAddr != "" {
		locker = locks.NewRedisLocker(config.RedisAddr, config.RedisPassword, 0, "yearbook:sections:")
	}

	f := &SectionGeneratorFunction{
		storageClient:    storageClient,
		firestoreClient:  firestoreClient,
		executionsClient: executionsClient,
		locker:           locker,
		kit:              kit,
		// Photos are always remote; a local path in a request is never honored.
		images: assets.Router{HTTP: router.HTTP, GCS: router.GCS},
		config: config,
	}
	slog.Info("Section Generator logic initialized.", "workflowId", config.WorkflowID, "parallelism", config.Parallelism)
	return f, nil
}

// Process regenerates every section of one user and hands off to the assembly workflow.
func (f *SectionGeneratorFunction) Process(ctx context.Context, req *models.SectionGeneratorRequest) (*models.SectionGeneratorResponse, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	logCtx := slog.With("email", req.Email)
	logCtx.Info("Starting section generation.", "images", len(req.Images), "messages", len(req.Messages))

	release, err := f.locker.Acquire(ctx, req.Email, f.config.LockTTL)
	if err != nil {
		logCtx.Warn("Could not take the generation lock.", "error", err)
		return nil, err
	}
	defer release()

	sections := groupSections(req)
	if len(sections) == 0 {
		logCtx.Warn("Nothing to generate.")
		return &models.SectionGeneratorResponse{Status: "success"}, nil
	}

	if err := f.deletePreviousSections(ctx, logCtx, req.Email); err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	logCtx = logCtx.With("seed", seed)

	results := make([]*models.GeneratedSection, len(sections))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(f.config.Parallelism)
	for i, section := range sections {
		eg.Go(func() error {
			generated, err := f.generateAndStore(gctx, logCtx, req.Email, i, section, seed+int64(i))
			if err != nil {
				// Failures are counted, not propagated.
				logCtx.Error("Section failed.", "section", section.Title, "error", err)
				return nil
			}
			results[i] = generated
			return nil
		})
	}
	_ = eg.Wait()

	resp := &models.SectionGeneratorResponse{Status: "success"}
	for _, r := range results {
		if r == nil {
			resp.Failed++
			continue
		}
		resp.Sections = append(resp.Sections, *r)
	}
	if len(resp.Sections) == 0 {
		return nil, fmt.Errorf("all %d sections failed for %s", len(sections), req.Email)
	}
	if resp.Failed > 0 {
		resp.Status = "partial"
	}

	parent := gcp.WorkflowParent(f.config.ProjectID, f.config.WorkflowLocation, f.config.WorkflowID)
	executionID, err := gcp.TriggerWorkflow(ctx, f.executionsClient, parent, map[string]interface{}{
		"email":        req.Email,
		"sectionCount": len(resp.Sections),
	})
	if err != nil {
		logCtx.Error("Failed to trigger assembly workflow", "error", err)
		return nil, err
	}
	resp.ExecutionID = executionID

	logCtx.Info("Section generation complete.", "generated", len(resp.Sections), "failed", resp.Failed, "executionId", executionID)
	return resp, nil
}

// groupSections turns a request into section requests: one per headtitle in order of
// first appearance, then one titled with the email holding the messages. Every photo
// contributes its caption, empty or not. Entries with neither a URL nor a caption are
// ignored, and groups left without images and texts are dropped.
func groupSections(req *models.SectionGeneratorRequest) []yearbook.SectionRequest {
	var order []string
	groups := make(map[string]*yearbook.SectionRequest)
	for _, img := range req.Images {
		title := img.Headtitle
		if title == "" {
			title = DefaultHeadtitle
		}
		g, ok := groups[title]
		if !ok {
			g = &yearbook.SectionRequest{Title: title}
			groups[title] = g
			order = append(order, title)
		}
		if img.URL == "" && img.Caption == "" {
			continue
		}
		if img.URL != "" {
			g.Images = append(g.Images, img.URL)
		}
		// One text per photo, even when empty, so captions stay beside their photos.
		g.Texts = append(g.Texts, img.Caption)
	}

	sections := make([]yearbook.SectionRequest, 0, len(order)+1)
	for _, title := range order {
		g := groups[title]
		if len(g.Images)+len(g.Texts) == 0 {
			slog.Warn("Skipping empty section.", "section", title)
			continue
		}
		sections = append(sections, *g)
	}

	messages := yearbook.SectionRequest{Title: req.Email}
	for _, m := range req.Messages {
		if m.FormattedMessage != "" {
			messages.Texts = append(messages.Texts, m.FormattedMessage)
		}
	}
	if len(messages.Texts) > 0 {
		sections = append(sections, messages)
	}
	return sections
}

// sectionObjectName is where a section PDF lives in the sections bucket.
func sectionObjectName(email, title, id string) string {
	name := sanitizeFileName(title)
	if name == "" {
		name = "section"
	}
	return fmt.Sprintf("%s/%s-%s.pdf", email, name, id)
}

func previewObjectName(objectName string) string {
	return strings.TrimSuffix(objectName, ".pdf") + ".png"
}

func (f *SectionGeneratorFunction) generateAndStore(ctx context.Context, logCtx *slog.Logger, email string, position int, req yearbook.SectionRequest, seed int64) (*models.GeneratedSection, error) {
	logCtx = logCtx.With("section", req.Title, "position", position)

	rc := yearbook.NewRenderContext(f.kit, f.images, seed)
	rc.Logger = logCtx
	res, err := yearbook.GenerateSection(ctx, rc, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate section: %w", err)
	}

	doc, err := pdfdoc.Optimize(res.Document)
	if err != nil {
		logCtx.Warn("Optimizing section failed, uploading unoptimized.", "error", err)
		doc = res.Document
	}
	data := doc.Bytes()

	bucket := f.storageClient.Bucket(f.config.SectionsBucket)
	objectName := sectionObjectName(email, req.Title, uuid.NewString())
	if err := gcp.UploadWithRetry(ctx, bucket, objectName, data, "application/pdf"); err != nil {
		return nil, err
	}

	var previewURI string
	if png, err := preview.FirstPagePNG(data, f.config.PreviewDPI); err != nil {
		logCtx.Warn("Preview rendering failed.", "error", err)
	} else {
		previewName := previewObjectName(objectName)
		if err := gcp.UploadWithRetry(ctx, bucket, previewName, png, "image/png"); err != nil {
			logCtx.Warn("Preview upload failed.", "error", err)
		} else {
			previewURI = gcp.ObjectURI(f.config.SectionsBucket, previewName)
		}
	}

	record := models.Section{
		Email:         email,
		Headtitle:     req.Title,
		Position:      position,
		ObjectName:    objectName,
		URI:           gcp.ObjectURI(f.config.SectionsBucket, objectName),
		PreviewURI:    previewURI,
		FileHash:      calculateHash(data),
		PageCount:     res.Pages,
		OverflowCount: res.OverflowCount(),
		Status:        models.StatusReady,
		CreatedAt:     time.Now(),
	}
	docRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to record section: %w", err)
	}

	logCtx.Info("Section stored.", "sectionId", docRef.ID, "objectName", objectName, "size", humanize.Bytes(uint64(len(data))))
	return &models.GeneratedSection{
		SectionID:     docRef.ID,
		Headtitle:     req.Title,
		URI:           record.URI,
		PreviewURI:    previewURI,
		PageCount:     res.Pages,
		OverflowCount: record.OverflowCount,
	}, nil
}

// deletePreviousSections removes every stored section of email, objects first.
func (f *SectionGeneratorFunction) deletePreviousSections(ctx context.Context, logCtx *slog.Logger, email string) error {
	bucket := f.storageClient.Bucket(f.config.SectionsBucket)
	iter := f.firestoreClient.Collection(f.config.CollectionName).Where("email", "==", email).Documents(ctx)
	defer iter.Stop()

	deleted := 0
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list previous sections: %w", err)
		}
		var old models.Section
		if err := snap.DataTo(&old); err != nil {
			return fmt.Errorf("failed to read section %s: %w", snap.Ref.ID, err)
		}
		if old.ObjectName != "" {
			if err := gcp.DeleteObject(ctx, bucket, old.ObjectName); err != nil {
				return err
			}
			if err := gcp.DeleteObject(ctx, bucket, previewObjectName(old.ObjectName)); err != nil {
				return err
			}
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete section record %s: %w", snap.Ref.ID, err)
		}
		deleted++
	}
	logCtx.Info("Previous sections deleted.", "count", deleted)
	return nil
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(gcp.GetEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
