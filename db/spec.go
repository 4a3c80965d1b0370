package db

import (
	"fmt"

	"microblog/models"
	"microblog/query"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
)

// columns maps the logical fields of a query.Spec to SQL columns of one table
type columns map[query.Field]string

var postColumns = columns{
	query.Id:        "posts.id",
	query.Timestamp: "posts.timestamp",
	query.AuthorId:  "posts.user_id",
}

var messageColumns = columns{
	query.Id:          "messages.id",
	query.Timestamp:   "messages.timestamp",
	query.AuthorId:    "messages.sender_id",
	query.RecipientId: "messages.recipient_id",
}

func (cols columns) column(field query.Field) (string, error) {
	col, ok := cols[field]
	if !ok {
		return "", fmt.Errorf("unsupported field %q: %w", field, models.ErrInvalidInput)
	}
	return col, nil
}

// applySpec adds the conditions, ordering and window of spec to sb
func applySpec(sb *sqlbuilder.SelectBuilder, cols columns, spec query.Spec) error {
	for _, cond := range spec.Where {
		expr, err := condition(sb, cols, cond)
		if err != nil {
			return err
		}
		sb.Where(expr)
	}

	if len(spec.OrderBy) > 0 {
		terms := make([]string, 0, len(spec.OrderBy))
		for _, order := range spec.OrderBy {
			col, err := cols.column(order.Field)
			if err != nil {
				return err
			}
			if order.Desc {
				col += " DESC"
			} else {
				col += " ASC"
			}
			terms = append(terms, col)
		}
		sb.OrderBy(terms...)
	}

	if spec.Limit > 0 {
		sb.Limit(spec.Limit)
	}
	if spec.Offset > 0 {
		sb.Offset(spec.Offset)
	}

	return nil
}

func condition(sb *sqlbuilder.SelectBuilder, cols columns, cond query.Condition) (string, error) {
	switch c := cond.(type) {
	case query.Equal:
		col, err := cols.column(c.Field)
		if err != nil {
			return "", err
		}
		return sb.Equal(col, c.Value), nil

	case query.FollowedBy:
		col, err := cols.column(query.AuthorId)
		if err != nil {
			return "", err
		}
		followed := sqlbuilder.SQLite.NewSelectBuilder()
		followed.Select("followers.followed_id").
			From("followers").
			Where(followed.Equal("followers.follower_id", c.FollowerId))
		return sb.In(col, followed), nil

	case query.Or:
		exprs := make([]string, 0, len(c))
		for _, sub := range c {
			expr, err := condition(sb, cols, sub)
			if err != nil {
				return "", err
			}
			exprs = append(exprs, expr)
		}
		return sb.Or(exprs...), nil
	}

	return "", fmt.Errorf("unsupported condition %T: %w", cond, models.ErrInvalidInput)
}
