package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/efootball-cup/middleware"
	"github.com/Dosada05/efootball-cup/models"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/Dosada05/efootball-cup/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Заглушки встраивают интерфейс: невызываемые методы остаются nil.
type stubMatchService struct {
	services.MatchService
	submitted   *services.SubmitResultInput
	screenshot  []byte
	submitErr   error
	listFilter  *repositories.ListMatchesFilter
	overrideFor uuid.UUID
}

func (s *stubMatchService) SubmitResult(_ context.Context, input services.SubmitResultInput) (*models.Match, error) {
	s.submitted = &input
	if input.Screenshot != nil {
		s.screenshot, _ = io.ReadAll(input.Screenshot)
	}
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &models.Match{ID: input.MatchID, Status: models.MatchStatusCompleted}, nil
}

func (s *stubMatchService) ListMatches(_ context.Context, filter repositories.ListMatchesFilter) ([]models.PlayerMatch, error) {
	s.listFilter = &filter
	return []models.PlayerMatch{}, nil
}

func (s *stubMatchService) OverrideResult(_ context.Context, _, matchID, winnerID uuid.UUID) (*models.Match, error) {
	s.overrideFor = winnerID
	return &models.Match{ID: matchID, WinnerID: &winnerID, Status: models.MatchStatusForfeit}, nil
}

type stubAuthService struct {
	services.AuthService
	user *models.User
	err  error
}

func (s *stubAuthService) Login(context.Context, services.LoginInput) (*models.User, error) {
	return s.user, s.err
}

type stubBracketService struct {
	services.BracketService
	err error
}

func (s *stubBracketService) GetBracket(_ context.Context, tournamentID uuid.UUID) (*models.Bracket, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Bracket{Tournament: &models.Tournament{ID: tournamentID}}, nil
}

func withUser(r *http.Request, userID uuid.UUID, role models.UserRole) *http.Request {
	ctx := middleware.WithClaims(r.Context(), jwt.MapClaims{
		middleware.JWTClaimUserID: userID.String(),
		middleware.JWTClaimRole:   string(role),
	})
	return r.WithContext(ctx)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrTournamentNotFound, http.StatusNotFound},
		{services.ErrBracketAlreadyGenerated, http.StatusConflict},
		{services.ErrAlreadyCompleted, http.StatusConflict},
		{services.ErrEmptyBracket, http.StatusUnprocessableEntity},
		{services.ErrTiedScore, http.StatusBadRequest},
		{services.ErrEvidenceTooLarge, http.StatusRequestEntityTooLarge},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrNotAuthorizedForMatch, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			mapServiceErrorToHTTP(rec, req, tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, decodeBody(t, rec), "error")
		})
	}
}

func TestMapServiceErrorToHTTP_WrappedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mapServiceErrorToHTTP(rec, req, errors.Join(errors.New("tx"), services.ErrMatchNotReady))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func multipartResult(t *testing.T, fields map[string]string, screenshot []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if screenshot != nil {
		part, err := mw.CreateFormFile("screenshot", "result.png")
		require.NoError(t, err)
		_, err = part.Write(screenshot)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func matchRouter(h *MatchHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/matches/{matchID}/result", h.SubmitResult)
	r.Post("/admin/matches/{matchID}/override", h.Override)
	return r
}

func TestMatchHandler_SubmitResult(t *testing.T) {
	userID, matchID := uuid.New(), uuid.New()

	t.Run("passes scores and screenshot to the service", func(t *testing.T) {
		svc := &stubMatchService{}
		body, contentType := multipartResult(t, map[string]string{"player1_score": "3", "player2_score": "1"}, []byte("png-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/matches/"+matchID.String()+"/result", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		matchRouter(NewMatchHandler(svc)).ServeHTTP(rec, withUser(req, userID, models.RolePlayer))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NotNil(t, svc.submitted)
		assert.Equal(t, matchID, svc.submitted.MatchID)
		assert.Equal(t, userID, svc.submitted.ActorID)
		assert.Equal(t, 3, svc.submitted.Player1Score)
		assert.Equal(t, 1, svc.submitted.Player2Score)
		assert.Equal(t, []byte("png-bytes"), svc.screenshot)
	})

	t.Run("missing screenshot is left to the service", func(t *testing.T) {
		svc := &stubMatchService{submitErr: services.ErrEvidenceRequired}
		body, contentType := multipartResult(t, map[string]string{"player1_score": "3", "player2_score": "1"}, nil)
		req := httptest.NewRequest(http.MethodPost, "/matches/"+matchID.String()+"/result", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		matchRouter(NewMatchHandler(svc)).ServeHTTP(rec, withUser(req, userID, models.RolePlayer))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, svc.submitted)
		assert.Nil(t, svc.submitted.Screenshot)
	})

	t.Run("non-numeric score", func(t *testing.T) {
		svc := &stubMatchService{}
		body, contentType := multipartResult(t, map[string]string{"player1_score": "three", "player2_score": "1"}, []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/matches/"+matchID.String()+"/result", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		matchRouter(NewMatchHandler(svc)).ServeHTTP(rec, withUser(req, userID, models.RolePlayer))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, svc.submitted)
	})

	t.Run("body over the limit is rejected before the service", func(t *testing.T) {
		svc := &stubMatchService{}
		h := NewMatchHandler(svc)
		h.maxFormBytes = 1024
		body, contentType := multipartResult(t, map[string]string{"player1_score": "3", "player2_score": "1"}, bytes.Repeat([]byte{0x89}, 8*1024))
		req := httptest.NewRequest(http.MethodPost, "/matches/"+matchID.String()+"/result", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		matchRouter(h).ServeHTTP(rec, withUser(req, userID, models.RolePlayer))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
		assert.Nil(t, svc.submitted)
	})

	t.Run("requires claims", func(t *testing.T) {
		svc := &stubMatchService{}
		body, contentType := multipartResult(t, map[string]string{"player1_score": "3", "player2_score": "1"}, []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/matches/"+matchID.String()+"/result", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		matchRouter(NewMatchHandler(svc)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMatchHandler_Override(t *testing.T) {
	svc := &stubMatchService{}
	matchID, winnerID := uuid.New(), uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/admin/matches/"+matchID.String()+"/override",
		strings.NewReader(`{"winner_id":"`+winnerID.String()+`"}`))
	rec := httptest.NewRecorder()

	matchRouter(NewMatchHandler(svc)).ServeHTTP(rec, withUser(req, uuid.New(), models.RoleAdmin))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, winnerID, svc.overrideFor)
}

func TestAdminHandler_ListMatchesFilters(t *testing.T) {
	svc := &stubMatchService{}
	h := NewAdminHandler(nil, svc)
	tournamentID := uuid.New()

	req := httptest.NewRequest(http.MethodGet,
		"/admin/matches?tournament_id="+tournamentID.String()+"&round=2&status=pending&limit=10&offset=20", nil)
	rec := httptest.NewRecorder()
	h.ListMatches(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.listFilter)
	assert.Equal(t, tournamentID, *svc.listFilter.TournamentID)
	assert.Equal(t, 2, *svc.listFilter.RoundNumber)
	assert.Equal(t, models.MatchStatusPending, *svc.listFilter.Status)
	assert.Equal(t, 10, svc.listFilter.Limit)
	assert.Equal(t, 20, svc.listFilter.Offset)

	for _, query := range []string{"round=0", "status=done", "limit=-1", "tournament_id=nope"} {
		rec := httptest.NewRecorder()
		h.ListMatches(rec, httptest.NewRequest(http.MethodGet, "/admin/matches?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestAuthHandler_LoginIssuesToken(t *testing.T) {
	user := &models.User{ID: uuid.New(), FullName: "Ann", Role: models.RolePlayer, Status: models.UserStatusApproved}
	h := NewAuthHandler(&stubAuthService{user: user}, "secret")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ann@example.com","password":"password1"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tokenString, ok := decodeBody(t, rec)["token"].(string)
	require.True(t, ok)

	token, err := jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims[middleware.JWTClaimUserID])
	assert.Equal(t, string(models.RolePlayer), claims[middleware.JWTClaimRole])
	assert.Equal(t, string(models.UserStatusApproved), claims[middleware.JWTClaimStatus])
}

func TestAuthHandler_LoginRejectsBadCredentials(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{err: services.ErrInvalidCredentials}, "secret")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ann@example.com","password":"nope"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c","password":"x","extra":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBracketHandler_GetBracket(t *testing.T) {
	r := chi.NewRouter()
	svc := &stubBracketService{}
	r.Get("/tournaments/{tournamentID}/bracket", NewBracketHandler(svc).GetBracket)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/not-a-uuid/bracket", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := uuid.New()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/"+id.String()+"/bracket", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	svc.err = services.ErrTournamentNotFound
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/"+id.String()+"/bracket", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
