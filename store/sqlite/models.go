package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/store"
)

type recordModel struct {
	grove.BaseModel `grove:"table:subwave_records"`

	Address   string    `grove:"address,pk"`
	Kind      int16     `grove:"kind"`
	Data      []byte    `grove:"data"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toRecordModel(r store.Record, t time.Time) recordModel {
	return recordModel{
		Address:   r.Address.String(),
		Kind:      int16(r.Kind),
		Data:      r.Data,
		CreatedAt: t,
		UpdatedAt: t,
	}
}

func fromRecordModel(m *recordModel) (*store.Record, error) {
	addr, err := address.Parse(m.Address)
	if err != nil {
		return nil, err
	}
	return &store.Record{Address: addr, Kind: address.Kind(m.Kind), Data: m.Data}, nil
}
