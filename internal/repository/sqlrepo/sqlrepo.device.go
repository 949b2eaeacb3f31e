// FilePath: internal/repository/sqlrepo/sqlrepo.device.go
package sqlrepo

import (
	"context"

	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/models"
)

const deviceColumns = `id, claim_token, claimed, online, created_at`

type DeviceRepo struct {
	baseRepo
}

func NewDeviceRepository() *DeviceRepo {
	return &DeviceRepo{baseRepo: baseRepo{entity: "device"}}
}

func (r *DeviceRepo) Get(ctx context.Context, q database.Querier, id string) (*models.Device, error) {
	device := &models.Device{}
	if err := r.get(ctx, q, device, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return device, nil
}

// GetForUpdate reads the device and holds its row lock until the transaction ends
func (r *DeviceRepo) GetForUpdate(ctx context.Context, q database.Querier, id string) (*models.Device, error) {
	device := &models.Device{}
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?` + database.ForUpdate(q)
	if err := r.get(ctx, q, device, query, id); err != nil {
		return nil, err
	}
	return device, nil
}

func (r *DeviceRepo) MarkOnline(ctx context.Context, q database.Querier, id string) error {
	return r.exec(ctx, q, "mark device online",
		`UPDATE devices SET claimed = TRUE, online = TRUE WHERE id = ?`, id)
}
