package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sandeeptech8/library-api/internal/model"
)

func TestDate_JSON(t *testing.T) {
	d := model.NewDate(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"2026-08-01"`, string(data))

	var got model.Date
	require.NoError(t, json.Unmarshal(data, &got))
	require.True(t, got.Equal(d.Time))

	zero, err := json.Marshal(model.Date{})
	require.NoError(t, err)
	require.Equal(t, `null`, string(zero))
}

func TestDate_Scan(t *testing.T) {
	var d model.Date

	require.NoError(t, d.Scan(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "2026-08-01", d.Format(time.DateOnly))

	require.NoError(t, d.Scan("2026-08-15"))
	require.Equal(t, "2026-08-15", d.Format(time.DateOnly))

	require.NoError(t, d.Scan(nil))
	require.True(t, d.IsZero())

	require.Error(t, d.Scan(42))
}

func TestBookAuthors_Scan(t *testing.T) {
	raw := `[{"id":1,"firstName":"Robert","lastName":"Martin"},{"id":2,"firstName":"Martin","lastName":"Fowler"}]`

	var authors model.BookAuthors
	require.NoError(t, authors.Scan([]byte(raw)))
	require.Len(t, authors, 2)
	require.Equal(t, model.BookAuthor{ID: 1, FirstName: "Robert", LastName: "Martin"}, authors[0])

	var fromString model.BookAuthors
	require.NoError(t, fromString.Scan(raw))
	require.Len(t, fromString, 2)

	var empty model.BookAuthors
	require.NoError(t, empty.Scan(nil))
	require.Nil(t, empty)

	require.Error(t, empty.Scan(42))
}
