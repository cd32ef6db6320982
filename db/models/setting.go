package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Setting : one key of the settings store, Value holds its JSON encoding.
type Setting struct {
	Key       string       `json:"key" bun:",pk"`
	Value     string       `json:"value" bun:",notnull"`
	CreatedAt time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt bun.NullTime `json:"updated_at"`
}

func (s *Setting) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery, *bun.InsertQuery:
		s.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Setting)(nil)
