// Package ftsearch builds FT.SEARCH arguments and parses RESP2 replies. It is
// shared by the Redis and Valkey stores, which speak the same dialect for the
// subset used here.
package ftsearch

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vetsearch/internal/db"
)

// ScoreField is the alias FT.SEARCH assigns to the KNN distance.
const ScoreField = "__vector_score"

// KNNArgs validates q and returns FT.SEARCH arguments for a KNN query with an
// optional pre-filter. sortByScore adds an explicit SORTBY on the distance,
// which Redis needs and valkey-search rejects.
func KNNArgs(q *db.KNNQuery, sortByScore bool) ([]string, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("%w: index name is required", db.ErrInvalidQuery)
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: vector is required", db.ErrInvalidQuery)
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", db.ErrInvalidQuery)
	}

	prefilter, err := db.RenderPredicate(q.Where)
	if err != nil {
		return nil, err
	}
	if prefilter == "" {
		prefilter = "*"
	} else {
		prefilter = "(" + prefilter + ")"
	}

	field := q.VectorField
	if field == "" {
		field = db.DefaultVectorField
	}
	queryStr := fmt.Sprintf("%s=>[KNN %d @%s $BLOB]", prefilter, q.K, field)

	args := []string{q.IndexName, queryStr}
	args = appendReturn(args, q.ReturnFields, ScoreField)
	if sortByScore {
		args = append(args, "SORTBY", ScoreField)
	}
	args = append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", VectorToBytes(q.Vector),
		"DIALECT", "2",
	)
	return args, nil
}

// TextArgs validates q and returns FT.SEARCH arguments for a scored text query.
func TextArgs(q *db.TextQuery) ([]string, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("%w: index name is required", db.ErrInvalidQuery)
	}
	if q.Query == "" {
		return nil, fmt.Errorf("%w: query is required", db.ErrInvalidQuery)
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", db.ErrInvalidQuery)
	}

	scorer := q.Scorer
	if scorer == "" {
		scorer = db.ScorerBM25
	}

	args := []string{q.IndexName, q.Query}
	args = appendReturn(args, q.ReturnFields, "")
	args = append(args,
		"SCORER", string(scorer),
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.TopK),
		"DIALECT", "2",
	)
	return args, nil
}

func appendReturn(args, fields []string, extra string) []string {
	if len(fields) == 0 {
		return args
	}
	n := len(fields)
	if extra != "" {
		n++
	}
	args = append(args, "RETURN", strconv.Itoa(n))
	args = append(args, fields...)
	if extra != "" {
		args = append(args, extra)
	}
	return args
}

// ParseKNN parses a 2-stride KNN reply and converts cosine distance to
// similarity (1 - d).
func ParseKNN(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, len(raw)/2)
	// [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}

		if scoreStr, ok := entry.Fields[ScoreField]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				entry.Score = 1.0 - d
			}
			delete(entry.Fields, ScoreField)
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// ParseText parses a 3-stride WITHSCORES reply.
func ParseText(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, len(raw)/3)
	// [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// VectorToBytes encodes v as little-endian FLOAT32 for the $BLOB parameter.
func VectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// IsRedisErr checks if err is a server error containing substr, case-insensitively.
func IsRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
