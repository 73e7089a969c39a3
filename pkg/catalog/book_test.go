package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStats(t *testing.T) BookStats {
	t.Helper()
	ratings, err := NewFiveStars(map[float64]int{1: 10, 2: 20, 3: 30, 4: 40, 5: 100})
	require.NoError(t, err)
	return BookStats{
		Ratings:       ratings,
		Reviews:       NewReviewsDistribution(map[string]int{"en": 50, "pl": 5}),
		TotalReviews:  80,
		TopShelves:    map[int]string{1500: "to-read", 300: "sci-fi"},
		TotalShelves:  2100,
		Editions:      map[string][]string{"en": {"The Forever War"}},
		TotalEditions: 120,
		Renown:        Popular,
	}
}

func TestBookStatsDerivedMetrics(t *testing.T) {
	stats := sampleStats(t)
	assert.Equal(t, 200, stats.TotalRatings())
	assert.InDelta(t, 4.0, stats.AvgRating(), 1e-9)
	assert.InDelta(t, 0.4, stats.R2R(), 1e-9)
	assert.Equal(t, 1800, stats.TotalTopShelvings())
	assert.InDelta(t, 9.0, stats.Sh2R(), 1e-9)
	assert.InDelta(t, 0.6, stats.E2R(), 1e-9)

	var empty BookStats
	assert.Equal(t, 0.0, empty.AvgRating())
	assert.Equal(t, 0.0, empty.R2R())
	assert.Equal(t, 0.0, empty.E2R())
}

func TestBookStatsJSON(t *testing.T) {
	data, err := json.Marshal(sampleStats(t))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `"avg_rating":4`)
	assert.Contains(t, text, `"total_ratings":200`)
	assert.Contains(t, text, `"renown":"POPULAR"`)
	assert.Contains(t, text, `"reviews_to_ratings":"40.00 %"`)
	assert.Contains(t, text, `"editions_to_ratings":"60.000 %"`)
	assert.Contains(t, text, `"1500":"to-read"`)

	var decoded BookStats
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 200, decoded.TotalRatings())
	assert.Equal(t, map[int]string{1500: "to-read", 300: "sci-fi"}, decoded.TopShelves)
}

func TestCompleteTitle(t *testing.T) {
	book := DetailedBook{
		Title:  "Dauntless",
		BookID: "1137215.Dauntless",
		Series: &BookSeries{
			Title: "The Lost Fleet",
			ID:    "45175-the-lost-fleet",
			Layout: map[float64]string{
				1: "1137215.Dauntless",
				2: "293064.Fearless",
			},
		},
	}
	assert.Equal(t, "Dauntless (The Lost Fleet #1)", book.CompleteTitle())

	book.Series = nil
	assert.Equal(t, "Dauntless", book.CompleteTitle())

	book.Series = &BookSeries{Title: "The Lost Fleet", Layout: map[float64]string{1: "other"}}
	assert.Equal(t, "Dauntless", book.CompleteTitle(), "配置に自分のIDがなければ素のタイトル")
}

func TestTimeMetrics(t *testing.T) {
	first := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	book := DetailedBook{
		Title:            "Old Classic",
		FirstPublication: &first,
		Stats:            sampleStats(t),
	}
	now := first.AddDate(20, 0, 0)
	metrics := book.TimeMetrics(now)
	require.NotNil(t, metrics)
	assert.InDelta(t, 19.99, metrics["lifetime_in_years"], 0.05)
	assert.InDelta(t, 10.0, metrics["ratings_per_year"], 0.1)

	book.FirstPublication = nil
	assert.Nil(t, book.TimeMetrics(now))
}

func TestBookSeriesJSONLayoutKeys(t *testing.T) {
	series := BookSeries{
		Title:  "The Lost Fleet",
		ID:     "45175-the-lost-fleet",
		Layout: map[float64]string{1: "a", 1.5: "b"},
	}
	data, err := json.Marshal(series)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"1":"a"`)
	assert.Contains(t, string(data), `"1.5":"b"`)

	var decoded BookSeries
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, series.Layout, decoded.Layout)
}

func TestReviewsDistribution(t *testing.T) {
	d := NewReviewsDistribution(map[string]int{"en": 100, "pl": 10, "??": 5})
	assert.Equal(t, []string{"en", "pl"}, d.Langs(), "不正な言語タグは除かれる")
	assert.Equal(t, 110, d.Total())

	reviews, ok := d.Reviews("en")
	require.True(t, ok)
	assert.Equal(t, 100, reviews)

	reviews, ok = d.Reviews("Polish")
	require.True(t, ok, "言語の英語名でも照会できる")
	assert.Equal(t, 10, reviews)

	_, ok = d.Reviews("Klingon")
	assert.False(t, ok)

	assert.Equal(t, map[string]int{"English": 100, "Polish": 10}, d.LangNamesDist(),
		"英語名で引き直した分布にも不正タグの項目は現れない")
}

func TestLangConversions(t *testing.T) {
	assert.Equal(t, "en", NameToLangCode("English"))
	assert.Equal(t, "pl", NameToLangCode(" polish "))
	assert.Equal(t, "", NameToLangCode("Valyrian"))
	assert.Equal(t, "English", LangCodeToName("en"))
	assert.True(t, IsValidLangTag("pt-BR"))
	assert.False(t, IsValidLangTag("???"))
}
