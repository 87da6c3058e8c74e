// files.go — обработчики реестра файлов: список, сохранение, чтение, удаление.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apierrors "github.com/DavidsonLima-ui/Compose-Suite/internal/api/errors"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/api/routes"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
)

// filesTotal — количество файлов в реестре по типу.
var filesTotal = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "cs_files_total",
		Help: "Количество файлов в реестре по типу",
	},
	[]string{"kind"},
)

// refreshFileMetrics обновляет cs_files_total после изменения реестра.
func (h *APIHandler) refreshFileMetrics() {
	counts := h.files.CountByKind()
	for _, k := range model.Kinds {
		filesTotal.WithLabelValues(string(k)).Set(float64(counts[k]))
	}
}

// saveFileRequest — тело POST /api/v1/files.
type saveFileRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// fileListResponse — ответ GET /api/v1/files.
type fileListResponse struct {
	Items   []*model.FileRecord `json:"items"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	HasMore bool                `json:"has_more"`
}

// ListFiles обрабатывает GET /api/v1/files.
// Последние сохранённые файлы идут первыми. Фильтр: kind.
func (h *APIHandler) ListFiles(w http.ResponseWriter, _ *http.Request, params routes.ListFilesParams) {
	limit, offset := paginationDefaults(params.Limit, params.Offset)

	var kindFilter model.Kind
	if params.Kind != nil && *params.Kind != "" {
		k, err := model.ParseKind(*params.Kind)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		kindFilter = k
	}

	items, total := h.files.Page(limit, offset, kindFilter)
	if items == nil {
		items = []*model.FileRecord{}
	}

	writeJSON(w, http.StatusOK, fileListResponse{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	})
}

// SaveFile обрабатывает POST /api/v1/files.
// Пустой id создаёт новый файл, иначе обновляет существующий.
func (h *APIHandler) SaveFile(w http.ResponseWriter, r *http.Request) {
	var req saveFileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	rec, err := h.files.Upsert(req.ID, req.Name, kind, req.Content)
	if err != nil {
		h.writeDomainError(w, err, "save_file")
		return
	}
	h.refreshFileMetrics()

	h.logger.Info("Файл сохранён через API",
		slog.String("file_id", rec.ID),
		slog.String("kind", string(rec.Kind)),
	)
	writeJSON(w, http.StatusOK, rec)
}

// GetFile обрабатывает GET /api/v1/files/{file_id}.
func (h *APIHandler) GetFile(w http.ResponseWriter, _ *http.Request, fileID routes.FileID) {
	rec, err := h.files.Get(fileID.String())
	if err != nil {
		apierrors.NotFound(w, fmt.Sprintf("Файл %s не найден", fileID.String()))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteFile обрабатывает DELETE /api/v1/files/{file_id}.
// Удаление отсутствующего файла тоже возвращает 204.
func (h *APIHandler) DeleteFile(w http.ResponseWriter, _ *http.Request, fileID routes.FileID) {
	if h.files.Remove(fileID.String()) {
		h.refreshFileMetrics()
		h.logger.Info("Файл удалён", slog.String("file_id", fileID.String()))
	}
	w.WriteHeader(http.StatusNoContent)
}
