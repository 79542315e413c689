package verify

import (
	"go.uber.org/zap"

	"github.com/qwex/breedcheck/internal/model"
	"github.com/qwex/breedcheck/internal/tabular"
)

// Partition splits outcomes into verified and failed groups, keeping
// input order within each group.
func Partition(outcomes []model.Outcome) (verified, failed []model.Outcome) {
	for _, o := range outcomes {
		if o.Verified() {
			verified = append(verified, o)
		} else {
			failed = append(failed, o)
		}
	}
	return verified, failed
}

// Rows renders outcomes as output rows.
func Rows(outcomes []model.Outcome) []*model.Row {
	rows := make([]*model.Row, len(outcomes))
	for i, o := range outcomes {
		rows[i] = o.Row()
	}
	return rows
}

// WriteGroup writes a partition to path. An empty group writes no file and
// reports false.
func WriteGroup(path, group string, outcomes []model.Outcome) (bool, error) {
	if len(outcomes) == 0 {
		zap.L().Info("no records in group, skipping output", zap.String("group", group), zap.String("path", path))
		return false, nil
	}
	if err := tabular.WriteCSV(path, Rows(outcomes)); err != nil {
		return false, err
	}
	zap.L().Info("wrote output",
		zap.String("group", group),
		zap.String("path", path),
		zap.Int("records", len(outcomes)),
	)
	return true, nil
}
