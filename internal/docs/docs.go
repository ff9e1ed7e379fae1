// Package docs renders the confirmed markdown agenda into a Word-compatible
// document and uploads it to Azure Blob Storage, returning a time-limited
// read-only SAS download URL.
package docs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/hubtab/TABAgent/internal/util"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Default document service configuration.
const (
	// DefaultContainer is the blob container for generated agenda documents.
	DefaultContainer = "tab-agenda-docs"
	// DefaultSASExpiry bounds how long a generated download link stays valid.
	DefaultSASExpiry = 24 * time.Hour
)

// Destination describes where a generated document belongs.
type Destination struct {
	CustomerName string
	ThreadID     string
}

// Service generates a downloadable agenda document from markdown content.
type Service interface {
	// Generate renders the markdown agenda and returns a download URL.
	Generate(ctx context.Context, markdownAgenda string, dest Destination) (string, error)
}

// Unavailable is a Service placeholder used when no storage backend is
// configured. Every generation attempt reports the misconfiguration so the
// agent can relay it conversationally.
type Unavailable struct{}

// Generate always fails with a configuration hint.
func (Unavailable) Generate(_ context.Context, _ string, _ Destination) (string, error) {
	return "", fmt.Errorf("document generation is not configured: set the Azure Storage connection string")
}

// Opts holds configuration options for the Azure document service.
type Opts struct {
	ConnectionString string
	Container        string
	SASExpiry        time.Duration
}

// Option defines a configuration option for the Azure document service.
type Option func(*Opts)

// WithConnectionString sets the Azure Storage connection string.
func WithConnectionString(connStr string) Option {
	return func(o *Opts) {
		o.ConnectionString = connStr
	}
}

// WithContainer overrides the default blob container name.
func WithContainer(name string) Option {
	return func(o *Opts) {
		o.Container = name
	}
}

// WithSASExpiry overrides the default download-link validity window.
func WithSASExpiry(d time.Duration) Option {
	return func(o *Opts) {
		o.SASExpiry = d
	}
}

// AzureService implements Service on Azure Blob Storage.
type AzureService struct {
	client    *azblob.Client
	container string
	sasExpiry time.Duration
	markdown  goldmark.Markdown
}

var _ Service = (*AzureService)(nil)

// NewAzureService creates a document service backed by Azure Blob Storage.
// The connection string must carry a shared key so SAS URLs can be signed.
func NewAzureService(opts ...Option) (*AzureService, error) {
	cfg := Opts{Container: DefaultContainer, SASExpiry: DefaultSASExpiry}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("docs.NewAzureService: creating document service", "container", cfg.Container, "connStr_set", cfg.ConnectionString != "")

	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("storage connection string not set")
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		slog.Error("docs.NewAzureService: failed to create blob client", "error", err)
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &AzureService{
		client:    client,
		container: cfg.Container,
		sasExpiry: cfg.SASExpiry,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.Table)),
	}, nil
}

// Generate renders the markdown agenda to a Word-compatible document, uploads
// it, and returns a read-only SAS download URL.
func (s *AzureService) Generate(ctx context.Context, markdownAgenda string, dest Destination) (string, error) {
	slog.Debug("docs.Generate: generating agenda document", "customer", dest.CustomerName, "threadID", dest.ThreadID, "contentBytes", len(markdownAgenda))

	document, err := s.renderDocument(markdownAgenda, dest)
	if err != nil {
		return "", err
	}

	if err := s.ensureContainer(ctx); err != nil {
		return "", err
	}

	blobName := documentBlobName(dest)
	contentType := "application/msword"
	_, err = s.client.UploadBuffer(ctx, s.container, blobName, document, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		slog.Error("docs.Generate: upload failed", "error", err, "blob", blobName)
		return "", fmt.Errorf("failed to upload agenda document: %w", err)
	}
	slog.Info("docs.Generate: document uploaded", "blob", blobName, "bytes", len(document))

	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(blobName)
	url, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().UTC().Add(s.sasExpiry), nil)
	if err != nil {
		slog.Error("docs.Generate: SAS generation failed", "error", err, "blob", blobName)
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return url, nil
}

// renderDocument converts the markdown agenda into a Word-compatible HTML
// document. Word opens HTML documents carrying the Office namespace headers
// as native .doc files.
func (s *AzureService) renderDocument(markdownAgenda string, dest Destination) ([]byte, error) {
	var body bytes.Buffer
	if err := s.markdown.Convert([]byte(markdownAgenda), &body); err != nil {
		slog.Error("docs.renderDocument: markdown conversion failed", "error", err)
		return nil, fmt.Errorf("failed to render agenda markdown: %w", err)
	}

	title := "Innovation Hub Session Agenda"
	if dest.CustomerName != "" {
		title = fmt.Sprintf("Innovation Hub Session Agenda - %s", dest.CustomerName)
	}

	var doc bytes.Buffer
	fmt.Fprintf(&doc, documentEnvelope, title, body.String())
	return doc.Bytes(), nil
}

func (s *AzureService) ensureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		slog.Error("docs.ensureContainer: container creation failed", "error", err, "container", s.container)
		return fmt.Errorf("failed to ensure container %s: %w", s.container, err)
	}
	return nil
}

// documentBlobName builds a unique blob name scoped to the customer.
func documentBlobName(dest Destination) string {
	customer := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(dest.CustomerName), " ", "_"))
	if customer == "" {
		customer = "session"
	}
	return util.GenerateRandomID("agenda_"+customer+"_", 12) + ".doc"
}

const documentEnvelope = `<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">
<head>
<meta charset="utf-8">
<title>%s</title>
<!--[if gte mso 9]><xml><w:WordDocument><w:View>Print</w:View></w:WordDocument></xml><![endif]-->
<style>
body { font-family: 'Segoe UI', sans-serif; }
table { border-collapse: collapse; width: 100%%; }
th, td { border: 1px solid #999; padding: 6px; text-align: left; vertical-align: top; }
th { background-color: #e8e8e8; }
</style>
</head>
<body>
%s
</body>
</html>
`
