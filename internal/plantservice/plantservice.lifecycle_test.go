package plantservice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/models"
	"github.com/itsatony/talkingplants/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaim(t *testing.T) {
	f := newFixture(t)

	ck, err := f.svc.Claim(ctx, "alice", "dev-1", "tok-1")
	require.NoError(t, err)
	assert.NotEmpty(t, ck.ID)
	assert.Nil(t, ck.PlantID)
	assert.Equal(t, models.Claimed{}, f.caretaker(t, "alice", "dev-1").State())

	// the device flag stays down until the device calls in
	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM devices WHERE id = 'dev-1' AND claimed = TRUE`))

	_, err = f.svc.Claim(ctx, "bob", "dev-1", "tok-1")
	assert.Equal(t, errors.ErrorTypeConflict, errors.TypeOf(err))
	_, err = f.svc.Claim(ctx, "alice", "dev-1", "whatever")
	assert.Equal(t, errors.ErrorTypeConflict, errors.TypeOf(err), "second claim conflicts with any token")
}

func TestClaim_Failures(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Claim(ctx, "alice", "dev-1", "wrong")
	assert.Equal(t, errors.ErrorTypeAuth, errors.TypeOf(err))
	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM caretaker`), "bad token inserts nothing")

	_, err = f.svc.Claim(ctx, "alice", "dev-404", "tok")
	assert.True(t, errors.IsNotFound(err))

	_, err = f.svc.Claim(ctx, "alice", "", "tok-1")
	assert.True(t, errors.IsValidation(err))

	// once the device is activated its own flag blocks claims too
	f.db.GetDB().MustExec(`UPDATE devices SET claimed = TRUE WHERE id = 'dev-2'`)
	_, err = f.svc.Claim(ctx, "alice", "dev-2", "tok-2")
	assert.True(t, errors.IsConflict(err))
}

func TestClaim_ConcurrentAttemptsBindOnce(t *testing.T) {
	f := newFixture(t)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Claim(ctx, "user-"+string(rune('a'+i)), "dev-1", "tok-1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM caretaker WHERE device_id = 'dev-1'`))
}

func TestAttachPlantPhoto(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Claim(ctx, "alice", "dev-1", "tok-1")
	require.NoError(t, err)

	res, err := f.svc.AttachPlantPhoto(ctx, upload("alice", "dev-1", 1))
	require.NoError(t, err)
	assert.Equal(t, "Swiss Cheese Plant", res.AvatarName, "defaults to the common name")
	assert.NotEmpty(t, res.AvatarID)

	ck := f.caretaker(t, "alice", "dev-1")
	assert.Equal(t, models.PlantAttached{PlantID: 1, PlantType: "Swiss Cheese Plant"}, ck.State())
	assert.Equal(t, "cheerful and chatty", *ck.PersonalityDefault)
	assert.Equal(t, []interface{}{30.0, 60.0}, ck.MoodReferenceValues["soil_moisture"])
	assert.Equal(t, res.PhotoURL, *ck.PhotoURL)
}

func TestAttachPlantPhoto_SecondCallReplacesFirst(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Claim(ctx, "alice", "dev-1", "tok-1")
	require.NoError(t, err)

	first, err := f.svc.AttachPlantPhoto(ctx, upload("alice", "dev-1", 1))
	require.NoError(t, err)

	in := upload("alice", "dev-1", 2)
	in.AvatarName = "Figgy"
	second, err := f.svc.AttachPlantPhoto(ctx, in)
	require.NoError(t, err)

	ck := f.caretaker(t, "alice", "dev-1")
	require.NotNil(t, ck.PlantID)
	assert.Equal(t, int64(2), *ck.PlantID)
	assert.Equal(t, "Fiddle-leaf Fig", *ck.PlantType)
	assert.Equal(t, "dramatic", *ck.PersonalityDefault)
	assert.Equal(t, "Figgy", *ck.AvatarName)
	assert.Equal(t, second.AvatarID, *ck.AvatarID)
	assert.NotEqual(t, first.AvatarID, second.AvatarID)
	assert.Nil(t, ck.MoodReferenceValues["soil_moisture"], "no leftovers from the first plant")

	assert.Equal(t, []string{second.PhotoURL}, f.photos.urls(), "the replaced photo is removed")
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM caretaker`))
}

func TestAttachPlantPhoto_Failures(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AttachPlantPhoto(ctx, upload("alice", "dev-1", 1))
	assert.Equal(t, errors.ErrorTypeAuthorize, errors.TypeOf(err), "no binding")

	_, err = f.svc.Claim(ctx, "alice", "dev-1", "tok-1")
	require.NoError(t, err)

	_, err = f.svc.AttachPlantPhoto(ctx, upload("bob", "dev-1", 1))
	assert.Equal(t, errors.ErrorTypeAuthorize, errors.TypeOf(err), "someone else's device")

	_, err = f.svc.AttachPlantPhoto(ctx, upload("alice", "dev-1", 99))
	assert.True(t, errors.IsNotFound(err))

	in := upload("alice", "dev-1", 1)
	in.Photo = nil
	_, err = f.svc.AttachPlantPhoto(ctx, in)
	assert.True(t, errors.IsValidation(err))

	assert.Empty(t, f.photos.urls(), "rejected requests store no photo")
	assert.Nil(t, f.caretaker(t, "alice", "dev-1").PlantID)
}

func TestDeviceOnline(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Claim(ctx, "alice", "dev-1", "tok-1")
	require.NoError(t, err)

	step, err := f.svc.OnboardingStep(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StepPhoto, step.Step)

	_, err = f.svc.AttachPlantPhoto(ctx, upload("alice", "dev-1", 1))
	require.NoError(t, err)
	step, err = f.svc.OnboardingStep(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StepWifi, step.Step)

	require.NoError(t, f.svc.DeviceOnline(ctx, "dev-1", "tok-1"))
	step, err = f.svc.OnboardingStep(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StepDone, step.Step)
	assert.Equal(t, "dev-1", step.DeviceID)

	status, err := f.svc.DeviceStatus(ctx, "dev-1")
	require.NoError(t, err)
	assert.True(t, status.Online)
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM devices WHERE id = 'dev-1' AND claimed = TRUE`))

	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM personality_evolution WHERE device_id = 'dev-1'`))
	seed, err := f.svc.Snapshots.Latest(ctx, f.db.GetDB(), "dev-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "cheerful and chatty", seed.PersonalityDescription)
	assert.Equal(t, "Swiss Cheese Plant", seed.PlantType)
	assert.Empty(t, seed.CurrentMood)
	assert.Nil(t, seed.SensorReadings.Luminosity)
	assert.True(t, seed.RecordedAt.Equal(day(1)))

	// a reboot loop must not duplicate the seed
	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.DeviceOnline(ctx, "dev-1", "tok-1"))
	}
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM personality_evolution WHERE device_id = 'dev-1'`))

	// the device can no longer be claimed
	_, err = f.svc.Claim(ctx, "bob", "dev-1", "tok-1")
	assert.True(t, errors.IsConflict(err))
}

func TestDeviceOnline_BeforePhoto(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Claim(ctx, "alice", "dev-1", "tok-1")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeviceOnline(ctx, "dev-1", "tok-1"))
	assert.Equal(t, models.Claimed{DeviceSynced: true}, f.caretaker(t, "alice", "dev-1").State())
	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM personality_evolution`), "no plant, no seed")

	_, err = f.svc.AttachPlantPhoto(ctx, upload("alice", "dev-1", 2))
	require.NoError(t, err)
	assert.Equal(t, models.Synced{PlantID: 2, PlantType: "Fiddle-leaf Fig"}, f.caretaker(t, "alice", "dev-1").State())

	require.NoError(t, f.svc.DeviceOnline(ctx, "dev-1", "tok-1"))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM personality_evolution WHERE plant_id = 2`))
}

func TestDeviceOnline_UnclaimedDevice(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.DeviceOnline(ctx, "dev-3", "tok-3"))

	status, err := f.svc.DeviceStatus(ctx, "dev-3")
	require.NoError(t, err)
	assert.True(t, status.Online)
}

func TestDeviceOnline_Failures(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Claim(ctx, "alice", "dev-1", "tok-1")
	require.NoError(t, err)

	err = f.svc.DeviceOnline(ctx, "dev-1", "nope")
	assert.Equal(t, errors.ErrorTypeAuth, errors.TypeOf(err))
	assert.False(t, f.caretaker(t, "alice", "dev-1").DeviceSynced)
	status, err := f.svc.DeviceStatus(ctx, "dev-1")
	require.NoError(t, err)
	assert.False(t, status.Online)

	assert.True(t, errors.IsNotFound(f.svc.DeviceOnline(ctx, "dev-404", "tok")))
	assert.True(t, errors.IsValidation(f.svc.DeviceOnline(ctx, "dev-1", "")))

	status, err = f.svc.DeviceStatus(ctx, "dev-404")
	require.NoError(t, err)
	assert.False(t, status.Online, "unknown devices read as offline")
}

func TestDeviceOnline_IsAllOrNothing(t *testing.T) {
	f := newFixture(t, func(r *Repositories) {
		r.Snapshots = &seedFailingRepo{SnapshotRepository: r.Snapshots}
	})
	_, err := f.svc.Claim(ctx, "alice", "dev-1", "tok-1")
	require.NoError(t, err)
	_, err = f.svc.AttachPlantPhoto(ctx, upload("alice", "dev-1", 1))
	require.NoError(t, err)

	err = f.svc.DeviceOnline(ctx, "dev-1", "tok-1")
	require.Error(t, err)

	assert.False(t, f.caretaker(t, "alice", "dev-1").DeviceSynced, "binding update rolled back")
	status, err := f.svc.DeviceStatus(ctx, "dev-1")
	require.NoError(t, err)
	assert.False(t, status.Online, "device update rolled back")
	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM personality_evolution`))
}

func TestDeviceOnline_CancelledContextRollsBack(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Claim(ctx, "alice", "dev-1", "tok-1")
	require.NoError(t, err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, f.svc.DeviceOnline(cctx, "dev-1", "tok-1"))
	assert.False(t, f.caretaker(t, "alice", "dev-1").DeviceSynced)
}

func TestLifecycle_EmitsEvents(t *testing.T) {
	f := newFixture(t)
	var (
		mu      sync.Mutex
		seen    []string
		devices []string
	)
	for _, ev := range AllEvents {
		name := ev
		f.events.On(name, "test", func(labels map[string]string) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, name)
			devices = append(devices, labels["device_id"])
		})
	}

	f.onboard(t, "alice", "dev-1", "tok-1", 1)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 4
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{EventDeviceClaimed, EventPlantAttached, EventDeviceOnline, EventSnapshotSeed}, seen)
	assert.Equal(t, []string{"dev-1", "dev-1", "dev-1", "dev-1"}, devices)
}

func TestLifecycle_EventsReachMonitoring(t *testing.T) {
	f := newFixture(t)
	mon := monitoring.NewService(nil)
	mon.Subscribe(f.events, AllEvents...)

	f.onboard(t, "alice", "dev-1", "tok-1", 1)

	assert.Eventually(t, func() bool {
		return mon.EventCounts()[EventSnapshotSeed] == 1
	}, time.Second, 10*time.Millisecond)
	counts := mon.EventCounts()
	assert.Equal(t, int64(1), counts[EventDeviceClaimed])
	assert.Equal(t, int64(1), counts[EventPlantAttached])
	assert.Equal(t, int64(1), counts[EventDeviceOnline])
}
