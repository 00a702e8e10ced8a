package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/yearbookflow/internal/gcp"
	"github.com/Lllllllleong/yearbookflow/internal/models"
	"github.com/Lllllllleong/yearbookflow/internal/yearbook"
	"github.com/dustin/go-humanize"
)

// MessageBookConfig holds all configuration for the message book service.
type MessageBookConfig struct {
	MessagesBucket string
	Assets         yearbook.AssetConfig
	AssetsDir      string
	Location       *time.Location
}

// MessageBookFunction holds the dependencies for rendering message books.
type MessageBookFunction struct {
	storageClient *storage.Client
	kit           *yearbook.Kit
	config        MessageBookConfig
}

// loadMessageBookConfig loads and validates all necessary environment variables for this service.
func loadMessageBookConfig() (*MessageBookConfig, error) {
	bucket := gcp.GetEnv("MESSAGES_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("MESSAGES_BUCKET environment variable must be set")
	}
	tz := gcp.GetEnv("MESSAGE_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_TIMEZONE %q: %w", tz, err)
	}
	assetCfg, assetsDir := loadAssetConfig()
	return &MessageBookConfig{
		MessagesBucket: bucket,
		Assets:         assetCfg,
		AssetsDir:      assetsDir,
		Location:       loc,
	}, nil
}

// NewMessageBook creates a new MessageBookFunction instance.
func NewMessageBook(ctx context.Context) (*MessageBookFunction, error) {
	config, err := loadMessageBookConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	kit, err := loadKit(ctx, newAssetRouter(storageClient, config.AssetsDir), config.Assets)
	if err != nil {
		return nil, err
	}

	return &MessageBookFunction{
		storageClient: storageClient,
		kit:           kit,
		config:        *config,
	}, nil
}

// Process renders the message book of one user and stores it.
func (f *MessageBookFunction) Process(ctx context.Context, req *models.MessageBookRequest) (*models.MessageBookResponse, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	logCtx := slog.With("email", req.Email)
	logCtx.Info("Starting message book.", "senders", len(req.Messages))

	doc, err := yearbook.BuildMessageBook(f.kit, toSenders(req.Messages), f.config.Location)
	if err != nil {
		logCtx.Error("Failed to render message book", "error", err)
		return nil, fmt.Errorf("failed to render message book: %w", err)
	}

	objectName := messageBookObjectName(req.Email, time.Now())
	bucket := f.storageClient.Bucket(f.config.MessagesBucket)
	if err := gcp.UploadWithRetry(ctx, bucket, objectName, doc.Bytes(), "application/pdf"); err != nil {
		logCtx.Error("Failed to upload message book", "error", err)
		return nil, err
	}

	uri := gcp.ObjectURI(f.config.MessagesBucket, objectName)
	logCtx.Info("Message book complete.", "uri", uri, "pages", doc.PageCount(), "size", humanize.Bytes(uint64(len(doc.Bytes()))))
	return &models.MessageBookResponse{
		Message: "PDF generated successfully",
		URL:     uri,
	}, nil
}

func toSenders(in []models.MessageSender) []yearbook.Sender {
	out := make([]yearbook.Sender, 0, len(in))
	for _, s := range in {
		sender := yearbook.Sender{Name: s.SenderName, Email: s.SenderEmail}
		for _, m := range s.Messages {
			sender.Messages = append(sender.Messages, yearbook.Message{Text: m.Text, Timestamp: m.Timestamp})
		}
		out = append(out, sender)
	}
	return out
}

func messageBookObjectName(email string, now time.Time) string {
	return fmt.Sprintf("message_pdfs/messages_%s_%d.pdf", sanitizeFileName(emailLocalPart(email)), now.Unix())
}
