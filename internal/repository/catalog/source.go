// Package catalog implements the creator catalog cache: an abstract CatalogSource
// feeding a TTL-refreshed, atomically-swapped in-memory snapshot.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kailas-cloud/creatormatch/internal/db"
	"github.com/kailas-cloud/creatormatch/internal/domain"
)

// Source is the abstract catalog backing store: a single listAll() operation
// returning a complete snapshot, per spec's CatalogSource contract.
type Source interface {
	ListAll(ctx context.Context) ([]domain.Creator, error)
}

// creatorDoc is the wire shape of a catalog creator document, matching the JSON
// produced by the ingestion pipeline (out of scope here, but its shape is fixed).
type creatorDoc struct {
	ID            string   `json:"id"`
	Nickname      string   `json:"nickname"`
	Bio           string   `json:"bio"`
	FollowerCount int      `json:"followerCount"`
	HeartCount    *int     `json:"heartCount,omitempty"`
	Region        string   `json:"region"`
	Analysis      struct {
		PrimaryNiches     []string `json:"primaryNiches"`
		SecondaryNiches   []string `json:"secondaryNiches"`
		ApparentValues    []string `json:"apparentValues"`
		AudienceInterests []string `json:"audienceInterests"`
		EngagementStyle   struct {
			Tone []string `json:"tone"`
		} `json:"engagementStyle"`
		Summary string `json:"summary"`
	} `json:"analysis"`
}

func (d creatorDoc) toCreator() (domain.Creator, error) {
	analysis, err := domain.NewAnalysis(
		d.Analysis.PrimaryNiches, d.Analysis.SecondaryNiches,
		d.Analysis.ApparentValues, d.Analysis.AudienceInterests,
		domain.NewEngagementStyle(d.Analysis.EngagementStyle.Tone), d.Analysis.Summary,
	)
	if err != nil {
		return domain.Creator{}, fmt.Errorf("creator %s: %w", d.ID, err)
	}

	hasHeart := d.HeartCount != nil
	heart := 0
	if hasHeart {
		heart = *d.HeartCount
	}

	creator, err := domain.NewCreator(d.ID, d.Nickname, d.Bio, d.FollowerCount, heart, hasHeart, d.Region, analysis)
	if err != nil {
		return domain.Creator{}, fmt.Errorf("creator %s: %w", d.ID, err)
	}
	return creator, nil
}

// RedisJSONSource lists creators stored as individual JSON documents in Redis/Valkey,
// keyed by a SCAN-discoverable prefix, grounded on db.JSONStore.
type RedisJSONSource struct {
	store     jsonScanner
	keyPrefix string
}

type jsonScanner interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// NewRedisJSONSource builds a RedisJSONSource over the given key prefix (e.g. "creator:").
func NewRedisJSONSource(store jsonScanner, keyPrefix string) *RedisJSONSource {
	return &RedisJSONSource{store: store, keyPrefix: keyPrefix}
}

// ListAll scans for creator keys and loads each document, skipping documents that
// are missing or fail to parse rather than aborting the whole refresh. Skipped
// documents are neither logged nor reported in the returned error.
func (s *RedisJSONSource) ListAll(ctx context.Context) ([]domain.Creator, error) {
	keys, err := s.store.Scan(ctx, s.keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan catalog keys: %w", domain.ErrDependencyUnavailable)
	}

	creators := make([]domain.Creator, 0, len(keys))
	for _, key := range keys {
		raw, err := s.store.JSONGet(ctx, key, "$")
		if err != nil {
			if err == db.ErrKeyNotFound {
				continue
			}
			return nil, fmt.Errorf("get catalog doc %s: %w", key, domain.ErrDependencyUnavailable)
		}

		creator, err := parseCreatorJSON(raw)
		if err != nil {
			continue // malformed document, skip rather than fail the whole refresh
		}
		creators = append(creators, creator)
	}
	return creators, nil
}

func parseCreatorJSON(raw []byte) (domain.Creator, error) {
	trimmed := strings.TrimSpace(string(raw))
	// RedisJSON's JSON.GET with "$" wraps the result in an array.
	if strings.HasPrefix(trimmed, "[") {
		var docs []creatorDoc
		if err := json.Unmarshal(raw, &docs); err != nil {
			return domain.Creator{}, err
		}
		if len(docs) == 0 {
			return domain.Creator{}, fmt.Errorf("empty document array")
		}
		return docs[0].toCreator()
	}

	var doc creatorDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Creator{}, err
	}
	return doc.toCreator()
}

// StaticFileSource lists creators from a single JSON array file, used for local/dev
// and tests.
type StaticFileSource struct {
	path string
}

// NewStaticFileSource builds a StaticFileSource over the given file path.
func NewStaticFileSource(path string) *StaticFileSource {
	return &StaticFileSource{path: path}
}

// ListAll reads and parses the configured file.
func (s *StaticFileSource) ListAll(_ context.Context) ([]domain.Creator, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", s.path, domain.ErrDependencyUnavailable)
	}

	var docs []creatorDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", s.path, domain.ErrConfigInvalid)
	}

	creators := make([]domain.Creator, 0, len(docs))
	for _, d := range docs {
		creator, err := d.toCreator()
		if err != nil {
			continue
		}
		creators = append(creators, creator)
	}
	return creators, nil
}
