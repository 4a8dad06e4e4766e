// Package dedupe implements duplicate detection and merging for batches
// of incoming records. Groups are found by exact identity, fuzzy name
// similarity, or geographic proximity, then collapsed onto the most
// complete member with contacts and services unioned across the group.
package dedupe

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/config"
	"github.com/hudumadata/facility-cli/internal/model"
)

// Deduplicator finds and merges duplicate records within a batch.
type Deduplicator struct {
	cfg config.DedupeConfig
	log *zap.Logger
}

// New creates a Deduplicator with the given thresholds.
func New(cfg config.DedupeConfig) *Deduplicator {
	return &Deduplicator{
		cfg: cfg,
		log: zap.L().With(zap.String("component", "dedupe")),
	}
}

// FindDuplicates scans the batch pairwise and returns groups of likely
// duplicates. Group members are indices into the input slice. Records
// not in any group are left out entirely.
func (d *Deduplicator) FindDuplicates(records []model.Record) []model.DuplicateGroup {
	processed := make([]bool, len(records))
	var groups []model.DuplicateGroup

	for i := range records {
		if processed[i] {
			continue
		}
		group := model.DuplicateGroup{
			GroupID: uuid.New().String(),
			Members: []int{i},
		}
		for j := i + 1; j < len(records); j++ {
			if processed[j] {
				continue
			}
			strategy, sim, ok := d.compare(records[i], records[j])
			if !ok {
				continue
			}
			group.Members = append(group.Members, j)
			processed[j] = true
			if group.Strategy == "" || sim > group.Similarity {
				group.Similarity = sim
				group.Strategy = strategy
			}
		}
		if len(group.Members) > 1 {
			processed[i] = true
			groups = append(groups, group)
			d.log.Debug("duplicate group found",
				zap.String("group_id", group.GroupID),
				zap.String("strategy", string(group.Strategy)),
				zap.Int("members", len(group.Members)),
				zap.Float64("similarity", group.Similarity))
		}
	}
	return groups
}

// compare judges whether two records are duplicates, returning the
// matching strategy and a similarity score when they are.
func (d *Deduplicator) compare(a, b model.Record) (model.MatchStrategy, float64, bool) {
	if exactKey(a.Name, a.Location.County, a.Location.Constituency) ==
		exactKey(b.Name, b.Location.County, b.Location.Constituency) && a.Name != "" {
		return model.MatchExact, 1.0, true
	}

	sim := NameSimilarity(a.Name, b.Name)
	if sim >= d.cfg.FuzzyThreshold {
		return model.MatchFuzzyName, sim, true
	}

	// Planar distance in degrees. Good enough near the equator, where
	// a degree of longitude is close to a degree of latitude.
	if latA, lonA, okA := a.Coordinates(); okA {
		if latB, lonB, okB := b.Coordinates(); okB {
			if math.Hypot(latA-latB, lonA-lonB) < d.cfg.GeoDistanceDeg {
				return model.MatchGeo, sim, true
			}
		}
	}

	// Shared admin area narrows the candidate space, so a lower name
	// bar applies.
	if a.Location.County != "" && a.Location.Constituency != "" &&
		exactKey("", a.Location.County, a.Location.Constituency) ==
			exactKey("", b.Location.County, b.Location.Constituency) &&
		sim >= d.cfg.GeoNameThreshold {
		return model.MatchGeo, sim, true
	}

	return "", 0, false
}
