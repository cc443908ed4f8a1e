// Package records persists per-tier performance records as one JSON document
// in a key-value store.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/verte-zerg/typemaster/internal/model"
)

// Key addresses the records document in the key-value store.
const Key = "records.v1"

// KV is durable key-value storage.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Repo loads and saves model.Records through a KV.
type Repo struct {
	kv     KV
	logger *slog.Logger
}

// NewRepo returns a Repo backed by kv. A nil logger uses slog.Default.
func NewRepo(kv KV, logger *slog.Logger) *Repo {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repo{kv: kv, logger: logger}
}

// Load returns the stored records merged with defaults. Missing or corrupt
// data yields empty records; Load never fails.
func (r *Repo) Load(ctx context.Context) model.Records {
	data, ok, err := r.kv.Get(ctx, Key)
	if err != nil {
		r.logger.Warn("load records failed, starting empty", "err", err)
		return model.NewRecords()
	}
	if !ok {
		return model.NewRecords()
	}
	recs, err := Decode(data)
	if err != nil {
		r.logger.Warn("records partially corrupt, defaults applied", "err", err)
	}
	return recs
}

// Save writes all records.
func (r *Repo) Save(ctx context.Context, recs model.Records) error {
	data, err := Encode(recs)
	if err != nil {
		return err
	}
	if err := r.kv.Put(ctx, Key, data); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

// Encode serializes records for storage.
func Encode(recs model.Records) ([]byte, error) {
	doc := make(map[string]model.DifficultyRecord, len(recs))
	for tier, rec := range recs {
		if rec.ParagraphAccuracies == nil {
			rec.ParagraphAccuracies = map[int]float64{}
		}
		doc[string(tier)] = rec
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return data, nil
}

// Decode parses a stored document, merging it with defaults field by field.
// It always returns usable records; the error reports the first field that
// had to be replaced by its default.
func Decode(data []byte) (model.Records, error) {
	recs := model.NewRecords()
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return recs, fmt.Errorf("decode records: %w", err)
	}
	var firstErr error
	note := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}
	for _, tier := range model.Tiers {
		raw, ok := doc[string(tier)]
		if !ok {
			continue
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			note(fmt.Errorf("tier %s: %w", tier, err))
		}
		recs[tier] = rec
	}
	return recs, firstErr
}

func decodeRecord(raw json.RawMessage) (model.DifficultyRecord, error) {
	rec := model.NewDifficultyRecord()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rec, err
	}
	var firstErr error
	ints := []struct {
		name   string
		target *int
	}{
		{"completedParagraphs", &rec.CompletedParagraphs},
		{"totalTyped", &rec.TotalTyped},
		{"totalCorrect", &rec.TotalCorrect},
		{"errors", &rec.Errors},
	}
	for _, f := range ints {
		v, ok := fields[f.name]
		if !ok {
			continue
		}
		var n int
		if err := json.Unmarshal(v, &n); err != nil || n < 0 {
			if firstErr == nil {
				firstErr = fmt.Errorf("field %s invalid", f.name)
			}
			continue
		}
		*f.target = n
	}
	if v, ok := fields["paragraphAccuracies"]; ok {
		var accs map[string]float64
		if err := json.Unmarshal(v, &accs); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("field paragraphAccuracies invalid: %w", err)
			}
		}
		for k, acc := range accs {
			idx, err := strconv.Atoi(k)
			if err != nil || idx < 0 || acc < 0 || acc > 100 {
				continue
			}
			rec.ParagraphAccuracies[idx] = acc
		}
	}
	if v, ok := fields["updatedAt"]; ok {
		var ts time.Time
		if err := json.Unmarshal(v, &ts); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("field updatedAt invalid: %w", err)
			}
		} else {
			rec.UpdatedAt = ts
		}
	}
	// Counters from a hand-edited or truncated document must stay consistent.
	if rec.TotalCorrect > rec.TotalTyped {
		rec.TotalCorrect = rec.TotalTyped
	}
	if rec.Errors != rec.TotalTyped-rec.TotalCorrect {
		rec.Errors = rec.TotalTyped - rec.TotalCorrect
	}
	return rec, firstErr
}
