// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	esbulk "github.com/elastic/go-elasticsearch/v8/esutil"
	"go.uber.org/zap"
)

// PropsIndexName is the index the props collection is mirrored into.
const PropsIndexName = "props"

func propsMapping() map[string]interface{} {
	keyword := map[string]interface{}{"type": "keyword"}
	text := map[string]interface{}{"type": "text"}
	textWithKeyword := map[string]interface{}{
		"type":   "text",
		"fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}},
	}
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"asset_tag":   keyword,
				"name":        textWithKeyword,
				"category":    keyword,
				"type":        keyword,
				"image_url":   map[string]interface{}{"type": "keyword", "index": false},
				"last_used":   map[string]interface{}{"type": "date"},
				"location":    textWithKeyword,
				"color":       keyword,
				"size":        keyword,
				"material":    keyword,
				"hair_color":  keyword,
				"hair_length": keyword,
				"hair_style":  keyword,
				"attributes": map[string]interface{}{
					"type": "nested",
					"properties": map[string]interface{}{
						"name":  keyword,
						"value": text,
					},
				},
				"notes":       text,
				"tags":        keyword,
				"search_text": text,
				"timestamp":   map[string]interface{}{"type": "date"},
			},
		},
	}
}

// EnsurePropsIndex creates the props index with its mapping if it does not already exist.
func EnsurePropsIndex(ctx context.Context, client *ESClientWrapper, logger *zap.Logger) error {
	log := logger.Named("elasticsearch_index_setup")

	res, err := esapi.IndicesExistsRequest{Index: []string{PropsIndexName}}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error checking if props index exists: %w", err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		log.Info("Props index already exists", zap.String("index_name", PropsIndexName))
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("error checking if props index exists: status %s", res.Status())
	}

	mapping, err := json.Marshal(propsMapping())
	if err != nil {
		return fmt.Errorf("error marshalling props mapping to JSON: %w", err)
	}

	createRes, err := esapi.IndicesCreateRequest{Index: PropsIndexName, Body: bytes.NewReader(mapping)}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error creating props index: %w", err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		log.Error("Failed to create props index",
			zap.String("status", createRes.Status()), zap.Any("error_details", decodeError(createRes.Body)))
		return fmt.Errorf("failed to create props index: status %s", createRes.Status())
	}

	log.Info("Props index created successfully", zap.String("index_name", PropsIndexName))
	return nil
}

// IndexStats reports the outcome of a Replace.
type IndexStats struct {
	Indexed uint64
	Failed  uint64
	Deleted int64
}

// PropsIndexer writes whole-collection snapshots into the props index.
type PropsIndexer struct {
	client *ESClientWrapper
	index  string
	logger *zap.Logger
}

func NewPropsIndexer(client *ESClientWrapper, logger *zap.Logger) *PropsIndexer {
	return &PropsIndexer{client: client, index: PropsIndexName, logger: logger.Named("props_indexer")}
}

// Replace makes the index hold exactly docs, keyed by document id: every document is
// bulk-indexed, then anything whose id is not in docs is deleted.
func (x *PropsIndexer) Replace(ctx context.Context, docs map[string][]byte) (IndexStats, error) {
	var stats IndexStats

	bi, err := esbulk.NewBulkIndexer(esbulk.BulkIndexerConfig{
		Client:     x.client.Client,
		Index:      x.index,
		NumWorkers: 2,
		FlushBytes: 1 << 20,
	})
	if err != nil {
		return stats, fmt.Errorf("creating bulk indexer: %w", err)
	}

	var failed atomic.Uint64
	ids := make([]string, 0, len(docs))
	for id, body := range docs {
		ids = append(ids, id)
		err := bi.Add(ctx, esbulk.BulkIndexerItem{
			Action:     "index",
			DocumentID: id,
			Body:       bytes.NewReader(body),
			OnFailure: func(_ context.Context, item esbulk.BulkIndexerItem, res esbulk.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					x.logger.Warn("Bulk item failed", zap.String("id", item.DocumentID), zap.Error(err))
					return
				}
				x.logger.Warn("Bulk item rejected", zap.String("id", item.DocumentID),
					zap.String("type", res.Error.Type), zap.String("reason", res.Error.Reason))
			},
		})
		if err != nil {
			_ = bi.Close(ctx)
			return stats, fmt.Errorf("queueing %s: %w", id, err)
		}
	}
	if err := bi.Close(ctx); err != nil {
		return stats, fmt.Errorf("flushing bulk indexer: %w", err)
	}
	bs := bi.Stats()
	stats.Indexed = bs.NumIndexed
	stats.Failed = failed.Load()

	deleted, err := x.deleteExcept(ctx, ids)
	if err != nil {
		return stats, err
	}
	stats.Deleted = deleted
	return stats, nil
}

func (x *PropsIndexer) deleteExcept(ctx context.Context, keep []string) (int64, error) {
	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if len(keep) > 0 {
		query = map[string]interface{}{
			"bool": map[string]interface{}{
				"must_not": map[string]interface{}{"ids": map[string]interface{}{"values": keep}},
			},
		}
	}
	body, err := json.Marshal(map[string]interface{}{"query": query})
	if err != nil {
		return 0, err
	}

	refresh := true
	conflicts := "proceed"
	res, err := esapi.DeleteByQueryRequest{
		Index:     []string{x.index},
		Body:      bytes.NewReader(body),
		Refresh:   &refresh,
		Conflicts: conflicts,
	}.Do(ctx, x.client.Client)
	if err != nil {
		return 0, fmt.Errorf("deleting stale props: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("deleting stale props: status %s", res.Status())
	}

	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decoding delete_by_query response: %w", err)
	}
	return out.Deleted, nil
}
