package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/storage"
	"github.com/google/uuid"
)

type DigestTrigger interface {
	MaybeGenerate(reason model.TriggerReason) (*uuid.UUID, error)
	Resend(digestID uuid.UUID) error
}

type DigestAPI struct {
	digestRepo storage.DigestRepository
	service    DigestTrigger
	logger     *slog.Logger
}

func NewDigestAPI(digestRepo storage.DigestRepository, service DigestTrigger, logger *slog.Logger) *DigestAPI {
	return &DigestAPI{
		digestRepo: digestRepo,
		service:    service,
		logger:     logger,
	}
}

func (d *DigestAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	head, tail := ShiftPath(r.URL.Path)
	action, _ := ShiftPath(tail)

	switch {
	case r.Method == http.MethodGet && head == "":
		d.List(w, r)
	case r.Method == http.MethodPost && head == "trigger":
		d.Trigger(w, r)
	case r.Method == http.MethodGet && action == "":
		d.Get(w, r, head)
	case r.Method == http.MethodPost && action == "resend":
		d.Resend(w, r, head)
	default:
		Error(w, http.StatusNotFound, "not found",
			fmt.Errorf("method %s with subpath %q was not registered in the digest api", r.Method, head))
	}
}

type respDigest struct {
	ID                   string         `json:"id"`
	Status               string         `json:"status"`
	TriggerReason        string         `json:"trigger_reason"`
	VideoCount           int            `json:"video_count"`
	TotalDurationSeconds int            `json:"total_duration_seconds"`
	CategoryCounts       map[string]int `json:"category_counts,omitempty"`
	PeriodStart          time.Time      `json:"period_start"`
	PeriodEnd            time.Time      `json:"period_end"`
	SentAt               *time.Time     `json:"sent_at,omitempty"`
	Error                string         `json:"error,omitempty"`
	Recipient            string         `json:"recipient"`
	CreatedAt            time.Time      `json:"created_at"`
}

func toRespDigest(record *model.DigestRecord) respDigest {
	resp := respDigest{
		ID:                   record.ID.String(),
		Status:               string(record.Status),
		TriggerReason:        string(record.TriggerReason),
		VideoCount:           record.VideoCount,
		TotalDurationSeconds: record.TotalDurationSeconds,
		PeriodStart:          record.PeriodStart,
		PeriodEnd:            record.PeriodEnd,
		Error:                record.Error,
		Recipient:            record.Recipient,
		CreatedAt:            record.CreatedAt,
	}
	if len(record.CategoryCounts) > 0 {
		resp.CategoryCounts = map[string]int{}
		for category, count := range record.CategoryCounts {
			resp.CategoryCounts[string(category)] = count
		}
	}
	if !record.SentAt.IsZero() {
		sentAt := record.SentAt
		resp.SentAt = &sentAt
	}

	return resp
}

func (d *DigestAPI) List(w http.ResponseWriter, r *http.Request) {
	records, err := d.digestRepo.FindRecent(20)
	if err != nil {
		d.returnErr(w, http.StatusInternalServerError, "could not list digests", err)
		return
	}

	resp := []respDigest{}
	for _, record := range records {
		resp = append(resp, toRespDigest(record))
	}

	JSON(w, http.StatusOK, resp)
}

func (d *DigestAPI) Get(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid digest id", err)
		return
	}

	record, err := d.digestRepo.Find(id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("no digest with id %s", id))
		return
	case err != nil:
		d.returnErr(w, http.StatusInternalServerError, "could not find digest", err)
		return
	}

	JSON(w, http.StatusOK, toRespDigest(record))
}

// Trigger generates a digest immediately, regardless of the threshold.
func (d *DigestAPI) Trigger(w http.ResponseWriter, r *http.Request) {
	id, err := d.service.MaybeGenerate(model.TriggerManual)
	if err != nil {
		d.returnErr(w, http.StatusInternalServerError, "could not generate digest", err)
		return
	}
	if id == nil {
		Message(w, http.StatusOK, "no videos waiting for a digest")
		return
	}

	Message(w, http.StatusOK, fmt.Sprintf("digest %s sent", id))
}

func (d *DigestAPI) Resend(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid digest id", err)
		return
	}

	if err := d.service.Resend(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			Error(w, http.StatusNotFound, "not found", fmt.Errorf("no digest with id %s", id))
			return
		}
		d.returnErr(w, http.StatusInternalServerError, "could not resend digest", err)
		return
	}

	Message(w, http.StatusOK, fmt.Sprintf("digest %s resent", id))
}

func (d *DigestAPI) returnErr(w http.ResponseWriter, status int, message string, err error) {
	d.logger.Error(message, slog.String("err", err.Error()))
	Error(w, status, message, err)
}
