package query_test

import (
	"testing"

	"microblog/query"

	"github.com/stretchr/testify/assert"
)

func TestOrdersAreFresh(t *testing.T) {
	newest := query.Newest()
	newest[0].Desc = false
	newest = append(newest, query.Order{Field: query.AuthorId})

	assert.Equal(t, []query.Order{{Field: query.Timestamp, Desc: true}, {Field: query.Id, Desc: true}}, query.Newest())
	assert.Equal(t, []query.Order{{Field: query.Timestamp}, {Field: query.Id}}, query.Oldest())
}
