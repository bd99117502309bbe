package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"printflow/internal/config"
	"printflow/internal/lib/sl"
)

// StorageService keeps rendered print files, mirrored mockups and invoice
// PDFs in a Google Cloud Storage bucket under deterministic object paths,
// so re-running a stage overwrites instead of duplicating.

type StorageService struct {
	client        *storage.Client
	bucket        string
	publicBaseUrl string
	log           *slog.Logger
}

func NewStorageService(ctx context.Context, conf *config.Config, log *slog.Logger) (*StorageService, error) {
	if conf.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is not configured")
	}

	var opts []option.ClientOption
	if conf.Storage.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Storage.Credentials))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &StorageService{
		client:        client,
		bucket:        conf.Storage.Bucket,
		publicBaseUrl: strings.TrimRight(conf.Storage.PublicBaseUrl, "/"),
		log:           log.With(sl.Module("storage")),
	}, nil
}

func (s *StorageService) Close() error {
	return s.client.Close()
}

// Upload writes data to the bucket and returns its public URL.
func (s *StorageService) Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write object %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", objectPath, err)
	}

	s.log.Debug("object uploaded",
		slog.String("path", objectPath),
		slog.Int("size", len(data)))
	return s.publicURL(objectPath), nil
}

// Mirror downloads an externally hosted file and re-uploads it under our
// own object path. Provider mockup URLs expire; mirrored copies do not.
func (s *StorageService) Mirror(ctx context.Context, srcURL, objectPath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", srcURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: status %d", srcURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, resp.Body); err != nil {
		w.Close()
		return "", fmt.Errorf("write object %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", objectPath, err)
	}

	return s.publicURL(objectPath), nil
}

// Download reads an object back; invoice resends re-attach the stored PDF
// instead of regenerating it.
func (s *StorageService) Download(ctx context.Context, objectPath string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", objectPath, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", objectPath, err)
	}
	return data, nil
}

func (s *StorageService) publicURL(objectPath string) string {
	if s.publicBaseUrl != "" {
		return s.publicBaseUrl + "/" + objectPath
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectPath)
}

// Object path conventions for the fulfillment pipeline.

func PrintFilePath(orderID, view string) string {
	return fmt.Sprintf("orders/%s/print/%s.png", orderID, view)
}

func MockupPath(orderID, role string) string {
	return fmt.Sprintf("orders/%s/mockups/%s.jpg", orderID, role)
}

func InvoicePath(orderID string) string {
	return fmt.Sprintf("invoices/%s.pdf", orderID)
}
