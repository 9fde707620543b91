package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/efootball-cup/middleware"
	"github.com/Dosada05/efootball-cup/services"
	"github.com/Dosada05/efootball-cup/storage"
	"github.com/google/uuid"
)

const (
	// maxScreenshotMemory - сколько формы держим в памяти, остальное уходит во временные файлы.
	maxScreenshotMemory = 10 << 20
	// maxResultFormBytes - потолок всего тела multipart-запроса: скриншот плюс поля формы.
	maxResultFormBytes = storage.MaxScreenshotBytes + 1<<20
)

type MatchHandler struct {
	matchService services.MatchService
	maxFormBytes int64
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms, maxFormBytes: maxResultFormBytes}
}

// Get godoc
// @Summary Матч участника
// @Tags matches
// @Description Доступен только игрокам этого матча.
// @Produce json
// @Security BearerAuth
// @Param matchID path string true "ID матча"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /matches/{matchID} [get]
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatchForPlayer(r.Context(), matchID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitResult godoc
// @Summary Отправить результат матча
// @Tags matches
// @Description Счет и скриншот результата. Победитель проходит в следующий раунд.
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param matchID path string true "ID матча"
// @Param player1_score formData int true "Голы игрока 1"
// @Param player2_score formData int true "Голы игрока 2"
// @Param screenshot formData file true "Скриншот результата (png, jpeg, gif, webp)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Ничья, отрицательный счет, нет скриншота"
// @Failure 403 {object} map[string]string "Не участник матча"
// @Failure 409 {object} map[string]string "Матч уже завершен или еще не готов"
// @Failure 413 {object} map[string]string "Слишком большой скриншот"
// @Router /matches/{matchID}/result [post]
func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFormBytes)
	if err := r.ParseMultipartForm(maxScreenshotMemory); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			errorResponse(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body must not be larger than %d bytes", h.maxFormBytes))
			return
		}
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	score1, err := formScore(r, "player1_score")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	score2, err := formScore(r, "player2_score")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	input := services.SubmitResultInput{
		MatchID:      matchID,
		ActorID:      userID,
		Player1Score: score1,
		Player2Score: score2,
	}

	file, _, err := r.FormFile("screenshot")
	switch {
	case err == nil:
		defer file.Close()
		input.Screenshot = file
	case errors.Is(err, http.ErrMissingFile):
		// сервис сам ответит ErrEvidenceRequired
	default:
		badRequestResponse(w, r, fmt.Errorf("failed to get screenshot from form: %w", err))
		return
	}

	match, err := h.matchService.SubmitResult(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func formScore(r *http.Request, field string) (int, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", field, raw)
	}
	return score, nil
}

// Override godoc
// @Summary Назначить победителя (админ)
// @Tags admin
// @Description Разрешает спорные матчи и bye в ручном режиме.
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param matchID path string true "ID матча"
// @Param body body object{winner_id=string} true "Победитель"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Победитель не участник матча"
// @Router /admin/matches/{matchID}/override [post]
func (h *MatchHandler) Override(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		WinnerID uuid.UUID `json:"winner_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinnerID == uuid.Nil {
		badRequestResponse(w, r, errors.New("winner_id is required"))
		return
	}

	match, err := h.matchService.OverrideResult(r.Context(), adminID, matchID, input.WinnerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
