package dedupe

import (
	"strconv"
	"strings"

	"github.com/hudumadata/facility-cli/internal/model"
)

// SelectBestRecord scores each group member by weighted completeness and
// returns the index (into records) of the winner. Required fields count
// 40%, location fields 30%, contact presence 20%, and a name length
// heuristic 10%.
func (d *Deduplicator) SelectBestRecord(records []model.Record, members []int) int {
	best := members[0]
	bestScore := -1.0
	for _, idx := range members {
		s := completenessScore(records[idx])
		if s > bestScore {
			bestScore = s
			best = idx
		}
	}
	return best
}

func completenessScore(rec model.Record) float64 {
	var score float64

	required := 0.0
	if strings.TrimSpace(rec.Name) != "" {
		required++
	}
	if strings.TrimSpace(rec.Location.County) != "" {
		required++
	}
	score += 0.40 * (required / 2)

	location := 0.0
	if rec.Location.Constituency != "" {
		location++
	}
	if rec.Location.Ward != "" {
		location++
	}
	if _, _, ok := rec.Coordinates(); ok {
		location++
	}
	score += 0.30 * (location / 3)

	if len(rec.Contacts) > 0 {
		score += 0.20
	}

	nameLen := float64(len(rec.Name))
	if nameLen > 50 {
		nameLen = 50
	}
	score += 0.10 * (nameLen / 50)

	return score
}

// MergeRecords collapses a duplicate group onto its best member. All
// contacts and services across the group are unioned onto the winner,
// de-duplicated by (type, value) and (category, description), and the
// result is tagged with merge provenance.
func (d *Deduplicator) MergeRecords(records []model.Record, members []int, bestIdx int) model.Record {
	merged := records[bestIdx].Clone()

	seenContacts := make(map[string]bool)
	for _, c := range merged.Contacts {
		seenContacts[c.Type+"|"+c.Value] = true
	}
	seenServices := make(map[string]bool)
	for _, s := range merged.Services {
		seenServices[s.Category+"|"+s.Description] = true
	}

	var mergedNames []string
	for _, idx := range members {
		if idx == bestIdx {
			continue
		}
		other := records[idx]
		mergedNames = append(mergedNames, other.Name)
		for _, c := range other.Contacts {
			key := c.Type + "|" + c.Value
			if !seenContacts[key] {
				seenContacts[key] = true
				merged.Contacts = append(merged.Contacts, c)
			}
		}
		for _, s := range other.Services {
			key := s.Category + "|" + s.Description
			if !seenServices[key] {
				seenServices[key] = true
				merged.Services = append(merged.Services, s)
			}
		}
		// Backfill fields the winner is missing.
		if merged.Address == "" && other.Address != "" {
			merged.Address = other.Address
		}
		if merged.Description == "" && other.Description != "" {
			merged.Description = other.Description
		}
		if merged.Location.Ward == "" && other.Location.Ward != "" {
			merged.Location.Ward = other.Location.Ward
		}
		if merged.Location.Constituency == "" && other.Location.Constituency != "" {
			merged.Location.Constituency = other.Location.Constituency
		}
		if _, _, ok := merged.Coordinates(); !ok {
			if lat, lon, ok := other.Coordinates(); ok {
				merged.SetCoordinates(lat, lon)
			}
		}
	}

	merged.SetExtra("merged_count", strconv.Itoa(len(members)))
	merged.SetExtra("merged_from", strings.Join(mergedNames, "; "))
	return merged
}
