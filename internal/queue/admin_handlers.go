package queue

import (
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pricelist/internal/common"
)

// Inspector reads queue state. *asynq.Inspector satisfies it.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// AdminHandler exposes catalog refresh and queue statistics endpoints.
type AdminHandler struct {
	Queue     Enqueuer
	Inspector Inspector
}

type queueStats struct {
	Queue     string `json:"queue"`
	Size      int    `json:"size"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Paused    bool   `json:"paused"`
}

// RefreshCatalog handles POST /admin/catalog/refresh by enqueueing a warm task.
func (h *AdminHandler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Queue == nil {
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeInternal, "task queue unavailable", nil)
		return
	}
	ctx := r.Context()
	id, err := EnqueueCatalogWarm(ctx, h.Queue, "admin")
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("catalog_refresh_enqueue")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to enqueue refresh", nil)
		return
	}
	common.Data(w, http.StatusAccepted, map[string]any{
		"task":      TypeCatalogWarm,
		"taskId":    id,
		"duplicate": id == "",
	})
}

// Stats handles GET /admin/queues.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Inspector == nil {
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeInternal, "task queue unavailable", nil)
		return
	}
	stats, err := h.stats()
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, err.Error(), nil)
		return
	}
	common.Data(w, http.StatusOK, []queueStats{stats})
}

func (h *AdminHandler) stats() (queueStats, error) {
	info, err := h.Inspector.GetQueueInfo(DefaultQueue)
	if err != nil {
		return queueStats{}, err
	}
	QueueDepth.WithLabelValues(info.Queue).Set(float64(info.Pending))
	return queueStats{
		Queue:     info.Queue,
		Size:      info.Size,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
		Archived:  info.Archived,
		Processed: info.Processed,
		Failed:    info.Failed,
		Paused:    info.Paused,
	}, nil
}
