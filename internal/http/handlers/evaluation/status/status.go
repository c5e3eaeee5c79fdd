// Package status реализует HTTP-обработчик состояния раздела фото-оценки.
//
// Ответ всегда 200: при сбое хранилища раздел отображается закрытым.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fitprogress/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitprogress/internal/http/response"
	"github.com/magabrotheeeer/fitprogress/internal/lib/day"
	"github.com/magabrotheeeer/fitprogress/internal/models"
)

// Service описывает проверку доступа к разделу оценки.
type Service interface {
	Status(ctx context.Context, session models.Session) models.UnlockStatus
}

// Handler обрабатывает запросы состояния доступа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Доступ к фото-оценке
// @Description Открыт ли раздел фото-оценки и сколько дней осталось до открытия.
// @Tags Evaluation
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Router /evaluation [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.evaluation.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		log.Error("session missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	st := h.service.Status(r.Context(), session)
	data := map[string]any{
		"is_unlocked":    st.IsUnlocked,
		"days_remaining": st.DaysRemaining,
		"days_required":  st.DaysRequired,
	}
	if !st.UnlockDate.IsZero() {
		data["unlock_date"] = day.Format(st.UnlockDate)
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
