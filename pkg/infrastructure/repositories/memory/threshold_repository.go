package memory

import (
	"context"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// ThresholdRepository provides in-memory drift threshold storage
type ThresholdRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.ThresholdRepository = (*ThresholdRepository)(nil)

// GetThresholds returns the stored thresholds or nil
func (r *ThresholdRepository) GetThresholds(ctx context.Context) (*entities.DriftThresholds, error) {
	var t *entities.DriftThresholds
	r.store.read(func(st *state) {
		if st.thresholds != nil {
			c := st.thresholds.Clone()
			t = &c
		}
	})
	return t, nil
}

// SaveThresholds replaces the stored thresholds
func (r *ThresholdRepository) SaveThresholds(ctx context.Context, thresholds *entities.DriftThresholds) error {
	if err := thresholds.Validate(); err != nil {
		return err
	}
	return r.store.write(func(st *state) error {
		c := thresholds.Clone()
		st.thresholds = &c
		return nil
	})
}
