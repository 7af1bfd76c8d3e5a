package handler

import (
	"fmt"
	"net/http"

	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/progress"
	"ewintr.nl/tubedigest/storage"
)

// StatusAPI reports backlog counts and the latest batch progress.
type StatusAPI struct {
	videoRepo storage.VideoRepository
	sink      *progress.MemorySink
}

func NewStatusAPI(videoRepo storage.VideoRepository, sink *progress.MemorySink) *StatusAPI {
	return &StatusAPI{
		videoRepo: videoRepo,
		sink:      sink,
	}
}

func (s *StatusAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		Error(w, http.StatusNotFound, "not found",
			fmt.Errorf("method %s was not registered in the status api", r.Method))
		return
	}

	counts := map[string]int{}
	for _, status := range []model.VideoStatus{
		model.StatusPending, model.StatusProcessing, model.StatusCompleted, model.StatusFailed,
	} {
		videos, err := s.videoRepo.FindByStatus(status)
		if err != nil {
			Error(w, http.StatusInternalServerError, "could not count videos", err)
			return
		}
		counts[string(status)] = len(videos)
	}
	undigested, err := s.videoRepo.CountUndigestedCompleted()
	if err != nil {
		Error(w, http.StatusInternalServerError, "could not count undigested videos", err)
		return
	}

	latest := s.sink.Latest()
	JSON(w, http.StatusOK, struct {
		Videos     map[string]int `json:"videos"`
		Undigested int            `json:"undigested"`
		Phase      string         `json:"phase,omitempty"`
		Percent    int            `json:"percent,omitempty"`
		Message    string         `json:"progress_message,omitempty"`
	}{
		Videos:     counts,
		Undigested: undigested,
		Phase:      latest.Phase,
		Percent:    latest.Percent,
		Message:    latest.Message,
	})
}
