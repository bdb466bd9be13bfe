package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/utils"
)

// QRService asks an external image API for a QR code pointing at a
// published resource. Generation is best effort: callers get a structured
// result, never an error that aborts their own work.
type QRService interface {
	Generate(ctx context.Context, target string, size int) QRResult
}

type QRResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

type qrService struct {
	httpClient *http.Client
	log        *logger.Logger
	apiURL     string
}

func NewQRService(log *logger.Logger) QRService {
	return &qrService{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With("service", "QRService"),
		apiURL:     utils.GetEnv("QR_API_URL", "https://api.qrserver.com/v1/create-qr-code/", log),
	}
}

func (qs *qrService) Generate(ctx context.Context, target string, size int) QRResult {
	if target == "" {
		return QRResult{Success: false, Error: "empty target"}
	}
	if size <= 0 {
		size = 200
	}
	imageURL := fmt.Sprintf("%s?size=%dx%d&data=%s", qs.apiURL, size, size, url.QueryEscape(target))

	// HEAD probe so a dead provider surfaces as a failed result instead
	// of a broken link in stored content.
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return QRResult{Success: false, Error: err.Error()}
	}
	resp, err := qs.httpClient.Do(req)
	if err != nil {
		qs.log.Warn("QR provider unreachable", "error", err)
		return QRResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		qs.log.Warn("QR provider returned non-200", "status", resp.StatusCode)
		return QRResult{Success: false, Error: fmt.Sprintf("qr provider status %d", resp.StatusCode)}
	}
	return QRResult{Success: true, URL: imageURL}
}
