// Package search maintains the walk index and serves fuzzy full-text
// lookups over it. Indexing is best-effort: failures are surfaced to the
// caller for logging but never fail the originating write.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/neibo-app/neibo/internal/models"
)

const WalkIndex = "walks"

// WalkDoc is the subset of a walk that is worth searching over.
type WalkDoc struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	CoverImageURL string `json:"coverImageUrl"`
	IsPublic      bool   `json:"isPublic"`
}

func DocFromWalk(w *models.Walk) WalkDoc {
	return WalkDoc{
		ID:            w.ID.String(),
		Name:          w.Name,
		Description:   w.Description,
		CoverImageURL: w.CoverImageURL,
		IsPublic:      w.IsPublic,
	}
}

type Index struct {
	ES    *elasticsearch.Client
	Index string
}

// NewIndex returns nil when no client is configured; a nil *Index is
// valid and turns every call into a no-op.
func NewIndex(client *elasticsearch.Client) *Index {
	if client == nil {
		return nil
	}
	return &Index{ES: client, Index: WalkIndex}
}

func (i *Index) IndexWalk(ctx context.Context, w *models.Walk) error {
	if i == nil {
		return nil
	}
	doc := DocFromWalk(w)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("search: marshal walk doc: %w", err)
	}
	res, err := i.ES.Index(
		i.Index,
		bytes.NewReader(data),
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(doc.ID),
		i.ES.Index.WithRefresh("false"),
	)
	if err != nil {
		return fmt.Errorf("search: index walk: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index walk: %s", res.Status())
	}
	return nil
}

func (i *Index) DeleteWalk(ctx context.Context, id string) error {
	if i == nil {
		return nil
	}
	res, err := i.ES.Delete(i.Index, id, i.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete walk: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("search: delete walk: %s", res.Status())
	}
	return nil
}

// Search runs a fuzzy multi-match over walk names and descriptions.
func (i *Index) Search(ctx context.Context, query string, from, size int) (int64, []WalkDoc, error) {
	if i == nil {
		return 0, nil, fmt.Errorf("search: not configured")
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Index),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", strings.TrimSpace(res.Status()))
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source WalkDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	docs := make([]WalkDoc, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		docs[n] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
