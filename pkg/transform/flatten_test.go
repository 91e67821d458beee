package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nestedVideo() map[string]interface{} {
	return map[string]interface{}{
		"kind": "youtube#video",
		"id":   "v1",
		"statistics": map[string]interface{}{
			"viewCount":    10,
			"commentCount": 3,
		},
		"snippet": map[string]interface{}{
			"title": "two\nlines",
			"thumbnails": map[string]interface{}{
				"default": map[string]interface{}{"url": "https://i.ytimg.com/d.jpg"},
			},
			"tags": []interface{}{"go ", "a\tb"},
		},
		"empty": map[string]interface{}{},
	}
}

func TestFlatten(t *testing.T) {
	flat := Flatten(nestedVideo())

	assert.Equal(t, map[string]interface{}{
		"kind":                           "youtube#video",
		"id":                             "v1",
		"statistics.viewCount":           10,
		"statistics.commentCount":        3,
		"snippet.title":                  "two lines",
		"snippet.thumbnails.default.url": "https://i.ytimg.com/d.jpg",
		"snippet.tags":                   []interface{}{"go ", "a b"},
	}, flat)

	for k, v := range flat {
		_, isMap := v.(map[string]interface{})
		assert.False(t, isMap, "key %s holds a map", k)
	}
}

func TestFlattenScrubbing(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"CRLFAndSpaces", "line1\r\nline2   line3", "line1 line2 line3"},
		{"Tabs", "a\t\tb", "a b"},
		{"VerticalTab", "a\vb", "a b"},
		{"NoBreakSpace", "a\u00a0\u00a0b", "a b"},
		{"LineSeparator", "a\u2028b", "a b"},
		{"ParagraphSeparator", "a\u2029b", "a b"},
		{"IdeographicSpace", "a\u3000\u3000b", "a b"},
		{"NextLine", "a\u0085b", "a b"},
		{"Mixed", "a \u00a0\r\n\u3000b", "a b"},
		{"NonSpaceUnicodeKept", "caf\u00e9 \u2603", "caf\u00e9 \u2603"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat := Flatten(map[string]interface{}{"text": tt.in, "tags": []interface{}{tt.in}})
			assert.Equal(t, tt.want, flat["text"])
			assert.Equal(t, []interface{}{tt.want}, flat["tags"])
		})
	}
}

func TestFlattenIdempotent(t *testing.T) {
	flat := Flatten(nestedVideo())
	assert.Equal(t, flat, Flatten(flat))

	already := map[string]interface{}{"a.b": "x  y", "c": 1.5, "d": nil}
	assert.Equal(t, map[string]interface{}{"a.b": "x y", "c": 1.5, "d": nil}, Flatten(already))
}

func TestFlattenKeepsArraysOfMaps(t *testing.T) {
	flat := Flatten(map[string]interface{}{
		"replies": map[string]interface{}{
			"comments": []interface{}{
				map[string]interface{}{"id": "r1"},
			},
		},
	})
	comments, ok := flat["replies.comments"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, "r1", comments[0].(map[string]interface{})["id"])
}

func TestShortenKeys(t *testing.T) {
	flat := map[string]interface{}{
		"snippet.title":                  "t",
		"snippet.thumbnails.default.url": "d",
		"snippet.thumbnails.high.url":    "h",
		"id":                             "v1",
	}

	short := ShortenKeys(flat)

	assert.Equal(t, "t", short["title"])
	assert.Equal(t, "v1", short["id"])
	// collision: "snippet.thumbnails.high.url" sorts last and wins
	assert.Equal(t, "h", short["url"])
	assert.Len(t, short, 3)
	assert.Equal(t, "url", ShortKey("a.b.url"))
	assert.Equal(t, "plain", ShortKey("plain"))
}

func TestDeriveSchema(t *testing.T) {
	rows := []map[string]interface{}{
		{"b": 1, "a": 2},
		{"c": 3, "a": 4},
		{"d": nil},
	}
	assert.Equal(t, Schema{"a", "b", "c", "d"}, DeriveSchema(rows))
	assert.Equal(t, Schema{}, DeriveSchema(nil))
}

func TestProjectPadsAndOrders(t *testing.T) {
	rows := []map[string]interface{}{
		{"id": "1", "title": "x", "extra": true},
		{"id": "2"},
	}

	table := Project("videos", rows, Schema{"title", "id", "missing"})

	assert.Equal(t, "videos", table.Name)
	assert.Equal(t, [][]interface{}{
		{"x", "1", nil},
		{nil, "2", nil},
	}, table.Rows)
	for _, row := range table.Rows {
		assert.Len(t, row, 3)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	flat := Flatten(nestedVideo())
	schema := DeriveSchema([]map[string]interface{}{flat})

	table := Project("videos", []map[string]interface{}{flat}, schema)

	require.Len(t, table.Records(), 1)
	assert.Equal(t, flat, table.Records()[0])
}

func TestProjectEmpty(t *testing.T) {
	table := Project("search", nil, Schema{"a"})
	assert.True(t, table.Empty())
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, Schema{"a"}, table.Columns)
}

func TestTableMap(t *testing.T) {
	table := Project("t", []map[string]interface{}{{"a": "x,y", "b": nil}}, Schema{"a", "b"})

	out, err := table.Map(&StripCommasTransform{})

	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{"xy", nil}}, out.Rows)
	// source table untouched
	assert.Equal(t, "x,y", table.Rows[0][0])
}
