package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/erpkernel/internal/data/store"
	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/domain/records"
	"github.com/yungbote/erpkernel/internal/pkg/dbctx"
	"github.com/yungbote/erpkernel/internal/pkg/logger"
)

// priorOutcome is what the idempotency store remembers about a create.
type priorOutcome struct {
	Receipt     mutation.Receipt `json:"receipt"`
	RequestHash string           `json:"requestHash"`
}

// idempotencyStore maps (org, namespace, key) to the receipt of the create
// that first used the key. The table is authoritative; the cache is a
// read-through copy.
type idempotencyStore struct {
	db    *gorm.DB
	cache store.ReceiptCache
	log   *logger.Logger
}

func (s idempotencyStore) lookup(ctx context.Context, orgID string, ns mutation.Namespace, key string) (*priorOutcome, error) {
	cacheKey := store.ReceiptCacheKey(orgID, string(ns), key)
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, cacheKey)
		switch {
		case err != nil:
			s.log.Warn("receipt cache read failed, using database", "error", err)
		case ok:
			var out priorOutcome
			if err := mutation.DecodeJSON(raw, &out); err == nil {
				return &out, nil
			}
			s.log.Warn("receipt cache entry unreadable, using database", "cache_key", cacheKey)
		}
	}
	out, err := s.find(s.db.WithContext(ctx), orgID, ns, key)
	if err != nil || out == nil {
		return out, err
	}
	s.remember(ctx, orgID, ns, key, *out)
	return out, nil
}

func (s idempotencyStore) find(db *gorm.DB, orgID string, ns mutation.Namespace, key string) (*priorOutcome, error) {
	var rec records.IdempotencyRecord
	err := db.Where("org_id = ? AND namespace = ? AND idem_key = ?", orgID, string(ns), key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := &priorOutcome{RequestHash: rec.RequestHash}
	if err := mutation.DecodeJSON(rec.Receipt, &out.Receipt); err != nil {
		return nil, err
	}
	return out, nil
}

// record claims key inside the caller's transaction. It returns
// errIdempotencyRace when another create already holds the key.
func (s idempotencyStore) record(dbc dbctx.Context, orgID string, ns mutation.Namespace, key string, out priorOutcome, now time.Time) error {
	raw, err := json.Marshal(out.Receipt)
	if err != nil {
		return err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	db := dbc.DB(s.db)
	err = db.Create(&records.IdempotencyRecord{
		ID:          id.String(),
		OrgID:       orgID,
		Namespace:   string(ns),
		IdemKey:     key,
		EntityID:    out.Receipt.Entity.ID(),
		RequestHash: out.RequestHash,
		Receipt:     datatypes.JSON(raw),
		CreatedAt:   now,
	}).Error
	if isUniqueViolation(err) {
		return errIdempotencyRace
	}
	return err
}

// remember copies an outcome into the cache. Failures only cost a database
// round-trip later.
func (s idempotencyStore) remember(ctx context.Context, orgID string, ns mutation.Namespace, key string, out priorOutcome) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, store.ReceiptCacheKey(orgID, string(ns), key), raw); err != nil {
		s.log.Warn("receipt cache write failed", "error", err)
	}
}

// requestHash fingerprints a create so key reuse with a different payload can
// be detected. json.Marshal sorts map keys, so the hash is order independent.
func requestHash(a action, input map[string]any) string {
	raw, err := json.Marshal(struct {
		Action string         `json:"action"`
		Input  map[string]any `json:"input"`
	}{Action: a.String(), Input: input})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
