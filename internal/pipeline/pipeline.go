// Package pipeline orchestrates batch ingestion: raw lake storage, swarm
// prevention, validation, geographic enhancement, and data mart projection.
// Records move strictly forward; a failed record is reported, never retried
// within the run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/config"
	"github.com/hudumadata/facility-cli/internal/dedupe"
	"github.com/hudumadata/facility-cli/internal/lake"
	"github.com/hudumadata/facility-cli/internal/mart"
	"github.com/hudumadata/facility-cli/internal/model"
	"github.com/hudumadata/facility-cli/internal/source"
	"github.com/hudumadata/facility-cli/internal/store"
	"github.com/hudumadata/facility-cli/internal/validate"
)

// Pipeline runs batches through every stage. One instance is safe for
// sequential batches; concurrent batches should each get their own.
type Pipeline struct {
	lake      *lake.Lake
	dedupe    *dedupe.Deduplicator
	validator *validate.Validator
	enhancer  *Enhancer
	st        store.Store
	cleanBar  float64
	log       *zap.Logger
}

// New assembles a pipeline from its stage components.
func New(lk *lake.Lake, dd *dedupe.Deduplicator, val *validate.Validator, enh *Enhancer, st store.Store, cfg config.DedupeConfig) *Pipeline {
	return &Pipeline{
		lake:      lk,
		dedupe:    dd,
		validator: val,
		enhancer:  enh,
		st:        st,
		cleanBar:  cfg.CleaningThreshold,
		log:       zap.L().With(zap.String("component", "pipeline")),
	}
}

// canonical is one post-merge record heading into validation, with the raw
// rows it stands for.
type canonical struct {
	dataID  string
	rec     model.Record
	rawIDs  []string
	members int
}

// IngestFromSource connects an adapter, extracts its records, and processes
// them as one batch. An unreachable source aborts before any record is read.
func (p *Pipeline) IngestFromSource(ctx context.Context, adapter source.Adapter, limit int) (model.BatchResult, error) {
	name := adapter.Name()
	if !adapter.Connect(ctx) {
		err := stageErr(KindSourceUnreachable, "connect", "",
			eris.Errorf("pipeline: source %q unreachable", name))
		return model.BatchResult{SourceName: name, Errors: []string{err.Error()}}, err
	}

	records, err := adapter.Extract(ctx, limit)
	if err != nil {
		serr := stageErr(KindSourceUnreachable, "extract", "",
			eris.Wrapf(err, "pipeline: extract from %q", name))
		return model.BatchResult{SourceName: name, Errors: []string{serr.Error()}}, serr
	}

	return p.ProcessBatch(ctx, name, records), nil
}

// ProcessBatch stores every record in the raw lake, runs swarm prevention
// across the batch, then walks the canonical records through validation,
// enhancement, enrichment, and mart projection. Per-record failures are
// captured; the batch itself never aborts here.
func (p *Pipeline) ProcessBatch(ctx context.Context, sourceName string, records []model.Record) model.BatchResult {
	start := time.Now()
	result := model.BatchResult{
		SourceName:       sourceName,
		RecordsProcessed: len(records),
	}

	stored := p.storeRaw(ctx, sourceName, records, &result)
	canonicals := p.preventSwarm(ctx, stored, &result)

	var qualitySum float64
	var scored int
	for _, c := range canonicals {
		score, warnings, err := p.processRecord(ctx, sourceName, c)
		result.Warnings = append(result.Warnings, warnings...)
		if err != nil {
			p.recordFailure(ctx, c, err, &result)
			continue
		}
		p.completeMembers(ctx, c)
		result.RecordsSuccessful += c.members
		qualitySum += score
		scored++
	}

	if scored > 0 {
		result.QualityScore = qualitySum / float64(scored)
	}
	result.Success = result.RecordsFailed == 0

	secs := time.Since(start).Seconds()
	if err := p.st.AppendEvent(ctx, model.ProcessingEvent{
		EventType: "batch_completed",
		SourceRef: sourceName,
		Success:   result.Success,
		Seconds:   &secs,
	}); err != nil {
		p.log.Warn("batch event write failed", zap.Error(err))
	}

	p.log.Info("batch processed",
		zap.String("source", sourceName),
		zap.Int("processed", result.RecordsProcessed),
		zap.Int("successful", result.RecordsSuccessful),
		zap.Int("failed", result.RecordsFailed),
		zap.Int("duplicates_prevented", result.DuplicatesPrevented),
		zap.Float64("quality_score", result.QualityScore))

	return result
}

// storeRaw writes every batch record to the lake. A storage failure drops
// only that record.
func (p *Pipeline) storeRaw(ctx context.Context, sourceName string, records []model.Record, result *model.BatchResult) []model.RawRecord {
	stored := make([]model.RawRecord, 0, len(records))
	for i, rec := range records {
		raw, created, err := p.lake.Store(ctx, sourceName, rec, nil)
		if err != nil {
			serr := stageErr(KindSystemFailure, "raw_store", "",
				eris.Wrapf(err, "pipeline: store record %d", i))
			result.RecordsFailed++
			result.Errors = append(result.Errors, serr.Error())
			p.log.Error("raw store failed", zap.Int("index", i), zap.Error(err))
			continue
		}
		p.appendEvent(ctx, "raw_stored", raw.DataID, sourceName, true, "")
		if !created {
			p.log.Debug("content already in lake",
				zap.String("data_id", raw.DataID))
		}
		stored = append(stored, *raw)
	}
	return stored
}

// preventSwarm groups near-duplicates across the batch and merges each group
// onto its most complete member. Group members other than the survivor count
// toward DuplicatesPrevented.
func (p *Pipeline) preventSwarm(ctx context.Context, stored []model.RawRecord, result *model.BatchResult) []canonical {
	payloads := make([]model.Record, len(stored))
	for i, raw := range stored {
		payloads[i] = raw.Payload
	}

	groups := p.dedupe.FindDuplicates(payloads)
	grouped := make(map[int]bool)
	canonicals := make([]canonical, 0, len(stored))

	for _, g := range groups {
		for _, m := range g.Members {
			grouped[m] = true
		}
		best := p.dedupe.SelectBestRecord(payloads, g.Members)
		merged := p.dedupe.MergeRecords(payloads, g.Members, best)

		swarm := make([]model.SwarmRecord, 0, len(g.Members))
		rawIDs := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			action := model.ActionMerged
			if m == best {
				action = model.ActionKeptOriginal
			}
			swarm = append(swarm, model.SwarmRecord{
				GroupID:    g.GroupID,
				DataID:     stored[m].DataID,
				SourceName: stored[m].SourceName,
				Similarity: g.Similarity,
				Strategy:   g.Strategy,
				Action:     action,
				CreatedAt:  time.Now().UTC(),
			})
			rawIDs = append(rawIDs, stored[m].DataID)
		}
		if err := p.st.InsertSwarmRecords(ctx, swarm); err != nil {
			p.log.Warn("swarm records write failed",
				zap.String("group_id", g.GroupID), zap.Error(err))
		}

		result.DuplicatesPrevented += len(g.Members) - 1
		canonicals = append(canonicals, canonical{
			dataID:  stored[best].DataID,
			rec:     merged,
			rawIDs:  rawIDs,
			members: len(g.Members),
		})
	}

	for i, raw := range stored {
		if grouped[i] {
			continue
		}
		canonicals = append(canonicals, canonical{
			dataID:  raw.DataID,
			rec:     raw.Payload,
			rawIDs:  []string{raw.DataID},
			members: 1,
		})
	}

	return canonicals
}

// processRecord walks one canonical record through validation, enhancement,
// enrichment, and mart projection, returning its quality score and any
// validation warnings.
func (p *Pipeline) processRecord(ctx context.Context, sourceName string, c canonical) (float64, []string, error) {
	if err := p.lake.SetStatus(ctx, c.dataID, model.StatusProcessing); err != nil {
		return 0, nil, stageErr(KindSystemFailure, "status", c.dataID, err)
	}

	rec := c.rec
	res := p.validator.Validate(rec)
	if res.QualityScore < p.cleanBar {
		cleaned := p.dedupe.Clean(rec)
		redo := p.validator.Validate(cleaned)
		if redo.QualityScore >= res.QualityScore {
			rec, res = cleaned, redo
		}
	}

	if err := p.st.InsertValidated(ctx, p.validator.ValidatedRecord(c.dataID, rec, res)); err != nil {
		return 0, res.Warnings, stageErr(KindSystemFailure, "validated_store", c.dataID, err)
	}

	if !res.IsValid {
		p.appendEvent(ctx, "validation_failed", c.dataID, sourceName, false,
			fmt.Sprintf("%v", res.Errors))
		return 0, res.Warnings, stageErr(KindValidationFailed, "validate", c.dataID,
			eris.Errorf("pipeline: record invalid: %v", res.Errors))
	}
	p.appendEvent(ctx, "validated", c.dataID, sourceName, true, "")

	geo, applied, geoErr := p.enhancer.Enhance(ctx, c.dataID, rec)
	if geoErr != nil {
		// Enhancement degraded but the record still proceeds.
		p.appendEvent(ctx, "enhanced", c.dataID, sourceName, false, geoErr.Error())
	} else {
		p.appendEvent(ctx, "enhanced", c.dataID, sourceName, true, "")
	}

	enriched := model.EnrichedRecord{
		DataID:              c.dataID,
		Payload:             rec,
		EnhancementsApplied: applied,
		Geographic:          geo,
		FinalQualityScore:   res.QualityScore,
		EnrichedAt:          time.Now().UTC(),
	}
	if err := p.st.InsertEnriched(ctx, enriched); err != nil {
		return 0, res.Warnings, stageErr(KindSystemFailure, "enriched_store", c.dataID, err)
	}
	p.appendEvent(ctx, "enriched_stored", c.dataID, sourceName, true, "")

	if err := p.st.InsertMart(ctx, mart.Build(enriched)); err != nil {
		return 0, res.Warnings, stageErr(KindSystemFailure, "mart_store", c.dataID, err)
	}
	p.appendEvent(ctx, "data_mart_created", c.dataID, sourceName, true, "")

	return res.QualityScore, res.Warnings, nil
}

// recordFailure converts a stage error into batch bookkeeping and flips the
// raw rows it covered to failed.
func (p *Pipeline) recordFailure(ctx context.Context, c canonical, err error, result *model.BatchResult) {
	result.RecordsFailed += c.members
	result.Errors = append(result.Errors, err.Error())
	p.log.Warn("record failed", zap.String("data_id", c.dataID), zap.Error(err))
	for _, id := range c.rawIDs {
		if serr := p.lake.SetStatus(ctx, id, model.StatusFailed); serr != nil {
			p.log.Warn("status update failed",
				zap.String("data_id", id), zap.Error(serr))
		}
	}
}

// completeMembers flips every raw row behind a finished canonical record to
// completed, merged-away members included.
func (p *Pipeline) completeMembers(ctx context.Context, c canonical) {
	for _, id := range c.rawIDs {
		if err := p.lake.SetStatus(ctx, id, model.StatusCompleted); err != nil {
			p.log.Warn("status update failed",
				zap.String("data_id", id), zap.Error(err))
		}
	}
}

func (p *Pipeline) appendEvent(ctx context.Context, eventType, dataID, sourceName string, success bool, errMsg string) {
	if err := p.st.AppendEvent(ctx, model.ProcessingEvent{
		EventType:    eventType,
		RecordID:     dataID,
		SourceRef:    sourceName,
		Success:      success,
		ErrorMessage: errMsg,
	}); err != nil {
		p.log.Warn("event write failed",
			zap.String("event_type", eventType), zap.Error(err))
	}
}
