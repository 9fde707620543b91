package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/Dosada05/efootball-cup/services"
	"github.com/google/uuid"
)

type AdminHandler struct {
	adminService services.AdminService
	matchService services.MatchService
}

func NewAdminHandler(as services.AdminService, ms services.MatchService) *AdminHandler {
	return &AdminHandler{adminService: as, matchService: ms}
}

// ListUsers godoc
// @Summary Список игроков (админ)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending | approved | rejected"
// @Param limit query int false "Лимит"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := readPagination(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	filter := repositories.ListUsersFilter{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.UserStatus(raw)
		switch status {
		case models.UserStatusPending, models.UserStatusApproved, models.UserStatusRejected:
			filter.Status = &status
		default:
			badRequestResponse(w, r, fmt.Errorf("invalid status query parameter: %q", raw))
			return
		}
	}

	users, err := h.adminService.ListUsers(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApproveUser godoc
// @Summary Одобрить игрока (админ)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param userID path string true "ID игрока"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Игрок уже проверен"
// @Router /admin/users/{userID}/approve [post]
func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.adminService.ApproveUser)
}

// RejectUser godoc
// @Summary Отклонить игрока (админ)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param userID path string true "ID игрока"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Игрок уже проверен"
// @Router /admin/users/{userID}/reject [post]
func (h *AdminHandler) RejectUser(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.adminService.RejectUser)
}

func (h *AdminHandler) decide(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id uuid.UUID) (*models.User, error)) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := action(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatches godoc
// @Summary Все матчи (админ)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param tournament_id query string false "ID турнира"
// @Param round query int false "Номер раунда"
// @Param status query string false "pending | completed | forfeit"
// @Param limit query int false "Лимит (макс. 200)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Router /admin/matches [get]
func (h *AdminHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := readPagination(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	filter := repositories.ListMatchesFilter{Limit: limit, Offset: offset}
	q := r.URL.Query()

	if filter.TournamentID, err = queryUUID(r, "tournament_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if raw := q.Get("round"); raw != "" {
		round, err := strconv.Atoi(raw)
		if err != nil || round < 1 {
			badRequestResponse(w, r, fmt.Errorf("invalid round query parameter: %q", raw))
			return
		}
		filter.RoundNumber = &round
	}
	if raw := q.Get("status"); raw != "" {
		status := models.MatchStatus(raw)
		switch status {
		case models.MatchStatusPending, models.MatchStatusInProgress, models.MatchStatusCompleted, models.MatchStatusForfeit:
			filter.Status = &status
		default:
			badRequestResponse(w, r, fmt.Errorf("invalid status query parameter: %q", raw))
			return
		}
	}
	if filter.PlayerID, err = queryUUID(r, "player_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatches(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
