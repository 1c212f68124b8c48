package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/policy"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "type":        {"type": "keyword"},
      "amount":      {"type": "double"},
      "description": {"type": "text"},
      "user_id":     {"type": "keyword"},
      "date":        {"type": "date"}
    }
  }
}`

type document struct {
	ID          uuid.UUID              `json:"id"`
	Type        models.TransactionType `json:"type"`
	Amount      float64                `json:"amount"`
	Description string                 `json:"description"`
	UserID      uuid.UUID              `json:"user_id"`
	Date        time.Time              `json:"date"`
}

func toDocument(tx *models.Transaction) document {
	return document{
		ID:          tx.ID,
		Type:        tx.Type,
		Amount:      tx.Amount,
		Description: tx.Description,
		UserID:      tx.UserID,
		Date:        tx.Date,
	}
}

func (d document) model() models.Transaction {
	return models.Transaction{
		ID:          d.ID,
		Type:        d.Type,
		Amount:      d.Amount,
		Description: d.Description,
		UserID:      d.UserID,
		Date:        d.Date,
	}
}

// TransactionIndex mirrors the ledger into one Elasticsearch index for
// full-text search over descriptions.
type TransactionIndex struct {
	Client *elasticsearch.Client
	Index  string
}

func (ix *TransactionIndex) EnsureIndex(ctx context.Context) error {
	res, err := ix.Client.Indices.Exists([]string{ix.Index}, ix.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = ix.Client.Indices.Create(ix.Index,
		ix.Client.Indices.Create.WithContext(ctx),
		ix.Client.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("es: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.Status(), res.Body)
	}
	return nil
}

func (ix *TransactionIndex) IndexTransaction(ctx context.Context, tx *models.Transaction) error {
	body, err := json.Marshal(toDocument(tx))
	if err != nil {
		return fmt.Errorf("es: marshal: %w", err)
	}

	res, err := ix.Client.Index(ix.Index, bytes.NewReader(body),
		ix.Client.Index.WithContext(ctx),
		ix.Client.Index.WithDocumentID(tx.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("es: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.Status(), res.Body)
	}
	return nil
}

func (ix *TransactionIndex) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := ix.Client.Delete(ix.Index, id.String(), ix.Client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res.Status(), res.Body)
	}
	return nil
}

func (ix *TransactionIndex) SearchTransactions(ctx context.Context, query string, f policy.Filter, from, size int) (int64, []models.Transaction, error) {
	if f.Scope == policy.ScopeNone {
		return 0, []models.Transaction{}, nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(SearchBody(query, f, from, size)); err != nil {
		return 0, nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := ix.Client.Search(
		ix.Client.Search.WithContext(ctx),
		ix.Client.Search.WithIndex(ix.Index),
		ix.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es: decode: %w", err)
	}

	total := r.Hits.Total.Value
	items := make([]models.Transaction, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		tx := hit.Source.model()
		// the index may lag the database; never return or count what the filter hides
		if f.Matches(&tx) {
			items = append(items, tx)
		} else {
			total--
		}
	}
	if total < int64(len(items)) {
		total = int64(len(items))
	}
	return total, items, nil
}

// SearchBody builds the query DSL: a fuzzy match on description combined
// with the visibility filter as a non-scoring bool clause.
func SearchBody(query string, f policy.Filter, from, size int) map[string]any {
	must := map[string]any{
		"match": map[string]any{
			"description": map[string]any{
				"query":     query,
				"fuzziness": "AUTO",
			},
		},
	}

	boolQuery := map[string]any{"must": must}
	if vis := visibility(f); vis != nil {
		boolQuery["filter"] = vis
	}

	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"sort":  []any{map[string]any{"date": map[string]any{"order": "desc"}}},
		"from":  from,
		"size":  size,
	}
}

func visibility(f policy.Filter) map[string]any {
	switch f.Scope {
	case policy.ScopeAll:
		return nil
	case policy.ScopeOwnDepositsAllExpenses:
		return map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"bool": map[string]any{
						"filter": []any{
							map[string]any{"term": map[string]any{"type": string(models.TypeDeposit)}},
							map[string]any{"term": map[string]any{"user_id": f.OwnerID.String()}},
						},
					}},
					map[string]any{"term": map[string]any{"type": string(models.TypeExpense)}},
				},
				"minimum_should_match": 1,
			},
		}
	}
	return map[string]any{"bool": map[string]any{"must_not": map[string]any{"match_all": map[string]any{}}}}
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 4<<10))
	return fmt.Errorf("es: %s: %s: %s", op, status, b)
}
