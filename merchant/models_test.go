package merchant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/subwave/merchant"
)

func ptr[T any](v T) *T { return &v }

func TestConfigPatchApply(t *testing.T) {
	base := merchant.Config{Price: 1000, IntervalDays: 30, ProductName: "pro", Active: true}

	tests := []struct {
		name  string
		patch merchant.ConfigPatch
		want  merchant.Config
	}{
		{
			name:  "empty patch is a no-op",
			patch: merchant.ConfigPatch{},
			want:  base,
		},
		{
			name:  "price only",
			patch: merchant.ConfigPatch{Price: ptr(uint64(2500))},
			want:  merchant.Config{Price: 2500, IntervalDays: 30, ProductName: "pro", Active: true},
		},
		{
			name:  "deactivate keeps price",
			patch: merchant.ConfigPatch{Active: ptr(false)},
			want:  merchant.Config{Price: 1000, IntervalDays: 30, ProductName: "pro", Active: false},
		},
		{
			name: "all fields",
			patch: merchant.ConfigPatch{
				Price:        ptr(uint64(1)),
				IntervalDays: ptr(uint32(7)),
				Active:       ptr(false),
			},
			want: merchant.Config{Price: 1, IntervalDays: 7, ProductName: "pro", Active: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := tt.patch.Apply(base)
			assert.Equal(t, tt.want, once)
			assert.Equal(t, once, tt.patch.Apply(once), "apply must be idempotent")
		})
	}
}

func TestConfigPatchIsEmpty(t *testing.T) {
	assert.True(t, merchant.ConfigPatch{}.IsEmpty())
	assert.False(t, merchant.ConfigPatch{Active: ptr(true)}.IsEmpty())
}
