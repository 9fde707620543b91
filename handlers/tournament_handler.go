package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/efootball-cup/middleware"
	"github.com/Dosada05/efootball-cup/models"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/Dosada05/efootball-cup/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
	}
}

// List godoc
// @Summary Список турниров
// @Tags tournaments
// @Produce json
// @Param status query string false "registration | brackets_generated | in_progress | completed"
// @Param limit query int false "Лимит (по умолчанию 50)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /tournaments [get]
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := readPagination(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	filter := repositories.ListTournamentsFilter{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.TournamentStatus(raw)
		switch status {
		case models.StatusRegistration, models.StatusBracketsGenerated, models.StatusInProgress, models.StatusCompleted:
			filter.Status = &status
		default:
			badRequestResponse(w, r, fmt.Errorf("invalid status query parameter: %q", raw))
			return
		}
	}

	tournaments, err := h.tournamentService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get godoc
// @Summary Турнир по ID
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "ID турнира"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Entrants godoc
// @Summary Одобренные участники турнира
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "ID турнира"
// @Success 200 {object} map[string]interface{}
// @Router /tournaments/{tournamentID}/entrants [get]
func (h *TournamentHandler) Entrants(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entrants, err := h.tournamentService.ListEntrants(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entrants": entrants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Register godoc
// @Summary Регистрация текущего игрока в турнире
// @Tags tournaments
// @Produce json
// @Security BearerAuth
// @Param tournamentID path string true "ID турнира"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Регистрация закрыта"
// @Failure 409 {object} map[string]string "Уже зарегистрирован или мест нет"
// @Router /tournaments/{tournamentID}/register [post]
func (h *TournamentHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registration, err := h.tournamentService.Register(r.Context(), userID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Create godoc
// @Summary Создать турнир (админ)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateTournamentInput true "Параметры турнира"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Slug занят"
// @Router /admin/tournaments [post]
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Name == "" {
		badRequestResponse(w, r, errors.New("name is required"))
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
