package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/efootball-cup/middleware"
	"github.com/Dosada05/efootball-cup/services"
)

// DashboardHandler - личный кабинет игрока: его матчи и уведомления.
type DashboardHandler struct {
	matchService        services.MatchService
	notificationService services.NotificationService
}

func NewDashboardHandler(ms services.MatchService, ns services.NotificationService) *DashboardHandler {
	return &DashboardHandler{
		matchService:        ms,
		notificationService: ns,
	}
}

// Matches godoc
// @Summary Мои матчи
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param tournament_id query string false "Фильтр по турниру"
// @Success 200 {object} map[string]interface{}
// @Router /me/matches [get]
func (h *DashboardHandler) Matches(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	tournamentID, err := queryUUID(r, "tournament_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListPlayerMatches(r.Context(), userID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Notifications godoc
// @Summary Мои уведомления
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param unread_only query bool false "Только непрочитанные"
// @Param limit query int false "Лимит"
// @Success 200 {object} map[string]interface{}
// @Router /me/notifications [get]
func (h *DashboardHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	unreadOnly := false
	if raw := r.URL.Query().Get("unread_only"); raw != "" {
		if unreadOnly, err = strconv.ParseBool(raw); err != nil {
			badRequestResponse(w, r, fmt.Errorf("invalid unread_only: %q", raw))
			return
		}
	}
	limit, _, err := readPagination(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	notifications, err := h.notificationService.List(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	unread, err := h.notificationService.UnreadCount(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"notifications": notifications,
		"unread_count":  unread,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MarkRead godoc
// @Summary Отметить уведомление прочитанным
// @Tags dashboard
// @Security BearerAuth
// @Param notificationID path string true "ID уведомления"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /me/notifications/{notificationID}/read [post]
func (h *DashboardHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	notificationID, err := getIDFromURL(r, "notificationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), notificationID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
