package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/storage"
)

type VideoResetter interface {
	Reset(id model.VideoID) error
}

type VideoAPI struct {
	videoRepo storage.VideoRepository
	pipeline  VideoResetter
	logger    *slog.Logger
}

func NewVideoAPI(videoRepo storage.VideoRepository, pipeline VideoResetter, logger *slog.Logger) *VideoAPI {
	return &VideoAPI{
		videoRepo: videoRepo,
		pipeline:  pipeline,
		logger:    logger,
	}
}

func (v *VideoAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoID, tail := ShiftPath(r.URL.Path)
	action, _ := ShiftPath(tail)

	switch {
	case r.Method == http.MethodGet && videoID == "":
		v.List(w, r)
	case r.Method == http.MethodGet && action == "":
		v.Get(w, r, model.VideoID(videoID))
	case r.Method == http.MethodPost && action == "retry":
		v.Retry(w, r, model.VideoID(videoID))
	default:
		Error(w, http.StatusNotFound, "not found",
			fmt.Errorf("method %s with subpath %q was not registered in the video api", r.Method, videoID))
	}
}

type respVideo struct {
	ID               string         `json:"id"`
	ChannelID        string         `json:"channel_id"`
	Title            string         `json:"title"`
	DurationSeconds  int            `json:"duration_seconds"`
	PublishedAt      time.Time      `json:"published_at"`
	Category         string         `json:"category,omitempty"`
	Status           string         `json:"status"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	RetryCount       int            `json:"retry_count,omitempty"`
	WatchURL         string         `json:"watch_url"`
	TranscriptSource string         `json:"transcript_source,omitempty"`
	Summary          *model.Summary `json:"summary,omitempty"`
	DigestID         string         `json:"digest_id,omitempty"`
}

func toRespVideo(video *model.Video, full bool) respVideo {
	resp := respVideo{
		ID:              string(video.ID),
		ChannelID:       string(video.ChannelID),
		Title:           video.Title,
		DurationSeconds: video.DurationSeconds,
		PublishedAt:     video.PublishedAt,
		Category:        string(video.Category),
		Status:          string(video.Status),
		ErrorMessage:    video.ErrorMessage,
		RetryCount:      video.RetryCount,
		WatchURL:        video.WatchURL(),
	}
	if video.DigestID != nil {
		resp.DigestID = video.DigestID.String()
	}
	if full {
		resp.TranscriptSource = video.TranscriptSource
		resp.Summary = video.Summary
	}

	return resp
}

// List returns videos, filtered by ?status= when given.
func (v *VideoAPI) List(w http.ResponseWriter, r *http.Request) {
	statuses := []model.VideoStatus{model.StatusPending, model.StatusProcessing, model.StatusCompleted, model.StatusFailed}
	if filter := r.URL.Query().Get("status"); filter != "" {
		statuses = []model.VideoStatus{model.VideoStatus(filter)}
	}

	videos, err := v.videoRepo.FindByStatus(statuses...)
	if err != nil {
		v.returnErr(w, http.StatusInternalServerError, "could not list videos", err)
		return
	}

	resp := []respVideo{}
	for _, video := range videos {
		resp = append(resp, toRespVideo(video, false))
	}

	JSON(w, http.StatusOK, resp)
}

func (v *VideoAPI) Get(w http.ResponseWriter, r *http.Request, id model.VideoID) {
	video, err := v.videoRepo.Find(id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("no video with id %s", id))
		return
	case err != nil:
		v.returnErr(w, http.StatusInternalServerError, "could not find video", err)
		return
	}

	JSON(w, http.StatusOK, toRespVideo(video, true))
}

// Retry resets a failed video and puts it back on the queue.
func (v *VideoAPI) Retry(w http.ResponseWriter, r *http.Request, id model.VideoID) {
	if err := v.pipeline.Reset(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			Error(w, http.StatusNotFound, "not found", fmt.Errorf("no video with id %s", id))
			return
		}
		Error(w, http.StatusConflict, "could not retry video", err)
		return
	}

	Message(w, http.StatusOK, fmt.Sprintf("video %s queued for retry", id))
}

func (v *VideoAPI) returnErr(w http.ResponseWriter, status int, message string, err error) {
	v.logger.Error(message, slog.String("err", err.Error()))
	Error(w, status, message, err)
}
