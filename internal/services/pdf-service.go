package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"printflow/internal/config"
	"printflow/internal/lib/sl"
)

// PdfService converts invoice HTML into PDF bytes via an external
// headless-Chromium render service.

type PdfService struct {
	renderUrl string
	token     string
	log       *slog.Logger
}

func NewPdfService(conf *config.Config, log *slog.Logger) (*PdfService, error) {
	if conf.Pdf.RenderUrl == "" {
		return nil, fmt.Errorf("pdf render url is not configured")
	}
	return &PdfService{
		renderUrl: conf.Pdf.RenderUrl,
		token:     conf.Pdf.Token,
		log:       log.With(sl.Module("pdf")),
	}, nil
}

type pdfRenderRequest struct {
	HTML   string `json:"html"`
	Format string `json:"format"`
}

// RenderHTML sends the document for conversion and returns the PDF bytes.
func (s *PdfService) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	data, err := json.Marshal(pdfRenderRequest{HTML: html, Format: "A4"})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.renderUrl, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("pdf render: status %d: %s", resp.StatusCode, string(body))
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("pdf render: empty document")
	}

	s.log.Debug("pdf rendered", slog.Int("size", len(body)))
	return body, nil
}
