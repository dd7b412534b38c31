package param

import (
	"testing"

	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestSearchIsValid(t *testing.T) {
	assert.True(t, NewSearch(DefaultQuery, DefaultLocation, DefaultMaxPages, entity.RecencyPastDay).IsValid())
	// 地点可以为空
	assert.True(t, NewSearch("Go", "", 1, entity.RecencyAnyTime).IsValid())

	assert.False(t, NewSearch("", "Berlin", 1, entity.RecencyAnyTime).IsValid())
	assert.False(t, NewSearch("Go", "Berlin", 0, entity.RecencyAnyTime).IsValid())

	var nilSearch *Search
	assert.False(t, nilSearch.IsValid())
}
