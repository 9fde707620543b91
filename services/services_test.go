package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/efootball-cup/cache"
	"github.com/Dosada05/efootball-cup/db"
	"github.com/Dosada05/efootball-cup/models"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/Dosada05/efootball-cup/storage"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type sentNotification struct {
	UserID uuid.UUID
	Kind   models.NotificationType
	Title  string
	Link   *string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, kind models.NotificationType, title, _ string, link *string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind, Title: title, Link: link})
}

func (n *recordingNotifier) count(userID uuid.UUID, kind models.NotificationType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.UserID == userID && s.Kind == kind {
			c++
		}
	}
	return c
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: map[string][]byte{}}
}

func (u *memoryUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(u.objects, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (u *memoryUploader) len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.objects)
}

type testEnv struct {
	db               *sqlx.DB
	users            repositories.UserRepository
	tournaments      repositories.TournamentRepository
	registrations    repositories.RegistrationRepository
	rounds           repositories.RoundRepository
	matches          repositories.MatchRepository
	notificationRepo repositories.NotificationRepository
	resets           repositories.PasswordResetRepository
	notifier         *recordingNotifier
	uploader         *memoryUploader
	logger           *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, "file::memory:?_foreign_keys=on", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(conn, db.DriverSQLite))

	return &testEnv{
		db:               conn,
		users:            repositories.NewUserRepository(conn),
		tournaments:      repositories.NewTournamentRepository(conn),
		registrations:    repositories.NewRegistrationRepository(conn),
		rounds:           repositories.NewRoundRepository(conn),
		matches:          repositories.NewMatchRepository(conn),
		notificationRepo: repositories.NewNotificationRepository(conn),
		resets:           repositories.NewPasswordResetRepository(conn),
		notifier:         &recordingNotifier{},
		uploader:         newMemoryUploader(),
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *testEnv) bracketService(autoByes bool) BracketService {
	return NewBracketService(e.db, e.tournaments, e.registrations, e.rounds, e.matches,
		e.notifier, cache.NewNoopBracketCache(), e.uploader, BracketOptions{AutoAdvanceByes: autoByes}, e.logger)
}

func (e *testEnv) matchService(autoByes bool) MatchService {
	return NewMatchService(e.db, e.tournaments, e.rounds, e.matches, e.users,
		e.notifier, cache.NewNoopBracketCache(), e.uploader, BracketOptions{AutoAdvanceByes: autoByes}, e.logger)
}

func (e *testEnv) createUser(t *testing.T, name string, status models.UserStatus) *models.User {
	t.Helper()
	hash, err := bcryptForTests("password123")
	require.NoError(t, err)
	u := &models.User{
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: hash,
		FullName:     name,
		EFootballID:  "KON-" + name,
		Platform:     "ps5",
		Role:         models.RolePlayer,
		Status:       status,
	}
	require.NoError(t, e.users.Create(context.Background(), nil, u))
	return u
}

func (e *testEnv) createTournament(t *testing.T, name string) *models.Tournament {
	t.Helper()
	now := time.Now().UTC()
	tr := &models.Tournament{
		Name:                 name,
		Slug:                 name,
		Format:               models.FormatSingleElimination,
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(96 * time.Hour),
		RegistrationDeadline: now.Add(24 * time.Hour),
		MaxPlayers:           64,
		Status:               models.StatusRegistration,
	}
	require.NoError(t, e.tournaments.Create(context.Background(), tr))
	return tr
}

// seedEntrants creates approved players registered in the given order.
func (e *testEnv) seedEntrants(t *testing.T, tournamentID uuid.UUID, names ...string) map[string]uuid.UUID {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	ids := make(map[string]uuid.UUID, len(names))
	for i, name := range names {
		u := e.createUser(t, name, models.UserStatusApproved)
		require.NoError(t, e.registrations.Create(context.Background(), nil, &models.Registration{
			UserID:       u.ID,
			TournamentID: tournamentID,
			RegisteredAt: base.Add(time.Duration(i) * time.Second),
		}))
		ids[name] = u.ID
	}
	return ids
}

// matchAt returns the match with the given number of the given round.
func (e *testEnv) matchAt(t *testing.T, tournamentID uuid.UUID, round, number int) *models.Match {
	t.Helper()
	ctx := context.Background()
	r, err := e.rounds.GetByNumber(ctx, nil, tournamentID, round)
	require.NoError(t, err)
	m, err := e.matches.GetByRoundAndNumber(ctx, nil, r.ID, number)
	require.NoError(t, err)
	return m
}

func (e *testEnv) tournament(t *testing.T, id uuid.UUID) *models.Tournament {
	t.Helper()
	tr, err := e.tournaments.GetByID(context.Background(), nil, id)
	require.NoError(t, err)
	return tr
}

// bcryptForTests uses the minimum cost to keep the suite fast.
func bcryptForTests(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash), err
}

func pngScreenshot(t *testing.T) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	img.Set(10, 10, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}
