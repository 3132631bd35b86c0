package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/fekuna/chronostore/internal/model"
)

const DefaultIndex = "watches"

const productMapping = `{
	"mappings": {
		"properties": {
			"id":             { "type": "long" },
			"brand":          { "type": "text", "fields": { "raw": { "type": "keyword" } } },
			"title":          { "type": "text" },
			"price":          { "type": "long" },
			"movement":       { "type": "keyword" },
			"dial_color":     { "type": "keyword" },
			"case_material":  { "type": "keyword" },
			"strap_material": { "type": "keyword" },
			"gender":         { "type": "keyword" },
			"created_at":     { "type": "date" }
		}
	}
}`

// ProductIndex stores active products as documents keyed by product id.
type ProductIndex struct {
	client *Client
	index  string
}

func NewProductIndex(client *Client, index string) *ProductIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &ProductIndex{client: client, index: index}
}

func (ix *ProductIndex) EnsureIndex(ctx context.Context) error {
	return ix.client.CreateIndex(ctx, ix.index, productMapping)
}

func (ix *ProductIndex) Put(ctx context.Context, p model.Product) error {
	return ix.client.Index(ctx, ix.index, strconv.FormatInt(p.ID, 10), p)
}

func (ix *ProductIndex) Remove(ctx context.Context, id int64) error {
	return ix.client.Delete(ctx, ix.index, strconv.FormatInt(id, 10))
}

// SearchIDs returns ids of products matching text, best match first.
func (ix *ProductIndex) SearchIDs(ctx context.Context, text string, limit int) ([]int64, error) {
	q := map[string]any{
		"query": map[string]any{
			"query_string": map[string]any{
				"query":            "*" + escapeQuery(strings.TrimSpace(text)) + "*",
				"fields":           []string{"brand^3", "title^2", "movement", "dial_color", "case_material"},
				"default_operator": "AND",
			},
		},
		"_source": false,
		"size":    limit,
	}
	res, err := ix.client.Search(ctx, ix.index, q)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`, `+`, `\+`, `-`, `\-`, `=`, `\=`, `&`, `\&`, `|`, `\|`, `>`, `\>`, `<`, `\<`,
	`!`, `\!`, `(`, `\(`, `)`, `\)`, `{`, `\{`, `}`, `\}`, `[`, `\[`, `]`, `\]`, `^`, `\^`,
	`"`, `\"`, `~`, `\~`, `*`, `\*`, `?`, `\?`, `:`, `\:`, `/`, `\/`,
)

func escapeQuery(s string) string { return queryEscaper.Replace(s) }
