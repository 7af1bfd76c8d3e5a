package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"ewintr.nl/tubedigest/fetcher"
)

type ScanRunner interface {
	Scan(ctx context.Context) (fetcher.ScanResult, error)
}

// ScanAPI triggers a subscription scan on demand.
type ScanAPI struct {
	scanner ScanRunner
	logger  *slog.Logger
}

func NewScanAPI(scanner ScanRunner, logger *slog.Logger) *ScanAPI {
	return &ScanAPI{
		scanner: scanner,
		logger:  logger,
	}
}

func (s *ScanAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		Error(w, http.StatusNotFound, "not found",
			fmt.Errorf("method %s was not registered in the scan api", r.Method))
		return
	}

	result, err := s.scanner.Scan(r.Context())
	if err != nil {
		s.logger.Error("manual scan failed", slog.String("err", err.Error()))
		Error(w, http.StatusInternalServerError, "scan failed", err)
		return
	}

	JSON(w, http.StatusOK, struct {
		ChannelsChecked int `json:"channels_checked"`
		NewVideos       int `json:"new_videos"`
		Queued          int `json:"queued"`
		ChannelErrors   int `json:"channel_errors"`
	}{
		ChannelsChecked: result.ChannelsChecked,
		NewVideos:       result.NewVideos,
		Queued:          result.Queued,
		ChannelErrors:   result.ChannelErrors,
	})
}
