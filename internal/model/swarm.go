package model

import "time"

// MatchStrategy names the rule under which two records were judged duplicates.
type MatchStrategy string

const (
	MatchExact     MatchStrategy = "exact"
	MatchFuzzyName MatchStrategy = "fuzzy_name"
	MatchGeo       MatchStrategy = "geo_proximity"
)

// SwarmAction is what happened to a duplicate-group member.
type SwarmAction string

const (
	ActionMerged       SwarmAction = "merged"
	ActionKeptOriginal SwarmAction = "kept_original"
	ActionFlagged      SwarmAction = "flagged"
	ActionRejected     SwarmAction = "rejected"
)

// DuplicateGroup is a transient grouping of near-duplicate records within one
// batch. Members index into the batch slice the deduplicator was given.
type DuplicateGroup struct {
	GroupID    string        `json:"group_id"`
	Strategy   MatchStrategy `json:"strategy"`
	Similarity float64       `json:"similarity"`
	Members    []int         `json:"members"`
}

// SwarmRecord is the per-member audit row produced by swarm prevention.
type SwarmRecord struct {
	GroupID    string        `json:"group_id"`
	DataID     string        `json:"data_id"`
	SourceName string        `json:"source_name"`
	Similarity float64       `json:"similarity"`
	Strategy   MatchStrategy `json:"strategy"`
	Action     SwarmAction   `json:"action"`
	CreatedAt  time.Time     `json:"created_at"`
}
