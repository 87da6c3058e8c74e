// assist.go — генерация текста и данных без привязки к сессии.
package handlers

import (
	"net/http"
	"strings"

	apierrors "github.com/DavidsonLima-ui/Compose-Suite/internal/api/errors"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/completion"
)

type enhanceRequest struct {
	Text        string `json:"text"`
	Instruction string `json:"instruction"`
}

type dataResponse struct {
	Data []completion.DataPoint `json:"data"`
}

// EnhanceText обрабатывает POST /api/v1/assist/enhance.
// Ошибки внешнего сервиса не возвращаются: ответ заменяется фиксированным текстом.
func (h *APIHandler) EnhanceText(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		apierrors.ValidationError(w, "Поле instruction обязательно")
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: h.assistant.Enhance(r.Context(), req.Text, req.Instruction)})
}

// GenerateData обрабатывает POST /api/v1/assist/data.
func (h *APIHandler) GenerateData(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		apierrors.ValidationError(w, "Поле topic обязательно")
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: h.assistant.GenerateData(r.Context(), req.Topic)})
}
