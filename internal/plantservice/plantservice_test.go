package plantservice

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/itsatony/talkingplants/internal/brain"
	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/models"
	"github.com/itsatony/talkingplants/internal/repository"
	"github.com/itsatony/talkingplants/internal/repository/sqlrepo"
	"github.com/stretchr/testify/require"
	nuts "github.com/vaudience/go-nuts"
)

var ctx = context.Background()

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type memPhotos struct {
	mu     sync.Mutex
	n      int
	stored map[string]string
}

func newMemPhotos() *memPhotos {
	return &memPhotos{stored: map[string]string{}}
}

func (m *memPhotos) Store(ctx context.Context, name, contentType string, size int64, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	url := fmt.Sprintf("/uploads/photo-%d.jpg", m.n)
	m.stored[url] = string(b)
	return url, nil
}

func (m *memPhotos) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stored[url]; !ok {
		return errors.NewNotFoundError("photo not found", nil)
	}
	delete(m.stored, url)
	return nil
}

func (m *memPhotos) urls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for u := range m.stored {
		out = append(out, u)
	}
	return out
}

type fakeBrain struct {
	reply string
	err   error
	got   []brain.Request
}

func (b *fakeBrain) Ask(ctx context.Context, req brain.Request) (string, error) {
	b.got = append(b.got, req)
	return b.reply, b.err
}

type fixture struct {
	svc    *PlantService
	db     database.DB
	photos *memPhotos
	brain  *fakeBrain
	clock  *clock
	events *nuts.EventEmitter
}

func day(d int) time.Time {
	return time.Date(2025, 6, d, 9, 30, 0, 0, time.UTC)
}

func newFixture(t *testing.T, opts ...func(*Repositories)) *fixture {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	conn := db.GetDB()
	conn.MustExec(`INSERT INTO devices (id, claim_token) VALUES ('dev-1', 'tok-1'), ('dev-2', 'tok-2'), ('dev-3', 'tok-3')`)
	conn.MustExec(`INSERT INTO plants (scientific_name, common_name_en, mood_reference, personality_default) VALUES
		('Monstera deliciosa', 'Swiss Cheese Plant', '{"soil_moisture":[30,60]}', 'cheerful and chatty'),
		('Ficus lyrata', 'Fiddle-leaf Fig', '{"luminosity":[800,2000]}', 'dramatic')`)

	repos := Repositories{
		Devices:    sqlrepo.NewDeviceRepository(),
		Caretakers: sqlrepo.NewCaretakerRepository(),
		Plants:     sqlrepo.NewPlantRepository(),
		Snapshots:  sqlrepo.NewSnapshotRepository(),
		Streaks:    sqlrepo.NewStreakRepository(),
		Messages:   sqlrepo.NewMessageRepository(),
	}
	for _, o := range opts {
		o(&repos)
	}

	f := &fixture{
		db:     db,
		photos: newMemPhotos(),
		brain:  &fakeBrain{reply: "I feel great"},
		clock:  &clock{t: day(1)},
		events: nuts.NewEventEmitter(),
	}
	f.svc = New(db, repos, f.photos, f.brain, WithClock(f.clock.Now), WithEventEmitter(f.events))
	require.NoError(t, f.svc.Validate())
	return f
}

func upload(user, device string, plantID int64) PhotoUpload {
	return PhotoUpload{
		UserID:      user,
		DeviceID:    device,
		PlantID:     plantID,
		Filename:    "plant.jpg",
		ContentType: "image/jpeg",
		Size:        5,
		Photo:       strings.NewReader("jpegs"),
	}
}

// onboard runs a device through claim, photo and online
func (f *fixture) onboard(t *testing.T, user, device, token string, plantID int64) {
	t.Helper()
	_, err := f.svc.Claim(ctx, user, device, token)
	require.NoError(t, err)
	_, err = f.svc.AttachPlantPhoto(ctx, upload(user, device, plantID))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeviceOnline(ctx, device, token))
}

func (f *fixture) addSnapshot(t *testing.T, device string, plantID int64, at time.Time, readings models.SensorReadings) string {
	t.Helper()
	s := &models.Snapshot{
		ID:                nuts.NID("pe", 12),
		DeviceID:          device,
		PlantID:           plantID,
		PersonalityParams: models.JSON{},
		CurrentMood:       models.JSON{"soil_moisture": []interface{}{"thirsty"}},
		SensorReadings:    readings,
		RecordedAt:        at,
	}
	require.NoError(t, sqlrepo.NewSnapshotRepository().Create(ctx, f.db.GetDB(), s))
	return s.ID
}

func (f *fixture) count(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.GetDB().Get(&n, f.db.GetDB().Rebind(query), args...))
	return n
}

func (f *fixture) caretaker(t *testing.T, user, device string) *models.Caretaker {
	t.Helper()
	ck, err := sqlrepo.NewCaretakerRepository().Get(ctx, f.db.GetDB(), user, device)
	require.NoError(t, err)
	return ck
}

// seedFailingRepo fails every snapshot insert
type seedFailingRepo struct {
	repository.SnapshotRepository
}

func (r *seedFailingRepo) Create(ctx context.Context, q database.Querier, s *models.Snapshot) error {
	return errors.NewDatabaseError("failed to create snapshot", fmt.Errorf("disk full"))
}
