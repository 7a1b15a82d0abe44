package dataset

import (
	"fmt"
	"strings"

	"parcel/internal/services"
)

// TrainSplit is the canonical name of the training split.
const TrainSplit = "train"

// SplitSpec declares one split: where its label directories live and how
// many shard files the sink writes for it.
type SplitSpec struct {
	Name       string
	Dir        string
	ShardCount int
}

// Validate checks the split declaration is usable by the sink.
func (s SplitSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: split name is empty", services.ErrValidation)
	}
	if strings.TrimSpace(s.Dir) == "" {
		return fmt.Errorf("%w: split %q has no directory", services.ErrValidation, s.Name)
	}
	if s.ShardCount < 1 {
		return fmt.Errorf("%w: split %q shard count %d must be at least 1", services.ErrValidation, s.Name, s.ShardCount)
	}
	return nil
}
