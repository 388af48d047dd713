package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-redis/redis/v8"
)

const categoryTableKey = "market:category_table"

// CategoryRuleDao keeps the category table in Redis so every instance
// shares one mapping. The first instance seeds it with its defaults.
type CategoryRuleDao struct {
	client   *redis.Client
	table    *CategoryTable
	defaults map[string]string
}

func NewCategoryRuleDao(client *redis.Client, table *CategoryTable, defaults map[string]string) *CategoryRuleDao {
	return &CategoryRuleDao{
		client:   client,
		table:    table,
		defaults: defaults,
	}
}

func (d *CategoryRuleDao) LoadRules(ctx context.Context) error {
	data, err := d.client.Get(ctx, categoryTableKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			d.table.Replace(d.defaults)
			return d.SaveRules(ctx, d.defaults)
		}
		return err
	}

	var entries map[string]string
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return err
	}

	d.table.Replace(entries)
	return nil
}

func (d *CategoryRuleDao) SaveRules(ctx context.Context, entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	return d.client.Set(ctx, categoryTableKey, string(data), 0).Err()
}

func (d *CategoryRuleDao) Category(itemType string) string {
	return d.table.Category(itemType)
}
