package handlers

import (
	"net/http"

	"github.com/Dosada05/efootball-cup/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bs}
}

// GetBracket godoc
// @Summary Сетка турнира
// @Tags bracket
// @Description Раунды, матчи и участники. Публичный эндпоинт.
// @Produce json
// @Param tournamentID path string true "ID турнира"
// @Success 200 {object} models.Bracket
// @Failure 404 {object} map[string]string "Турнир или сетка не найдены"
// @Router /tournaments/{tournamentID}/bracket [get]
func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Generate godoc
// @Summary Сгенерировать сетку (админ)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param tournamentID path string true "ID турнира"
// @Success 201 {object} models.Bracket
// @Failure 409 {object} map[string]string "Сетка уже сгенерирована"
// @Failure 422 {object} map[string]string "Нет одобренных участников"
// @Router /admin/tournaments/{tournamentID}/bracket [post]
func (h *BracketHandler) Generate(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GenerateBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
