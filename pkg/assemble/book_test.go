package assemble

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
)

const bookPrimaryHTML = `<html><body>
<div class="BookPageTitleSection__title">
  <a href="/series/123-some-series">Some Series #1</a>
  <h1 data-testid="bookTitle">I Have No Mouth and I Must Scream</h1>
</div>
<div class="ContributorLinksList">
  <a href="https://catalog.test/author/show/7415.Harlan_Ellison"><span class="ContributorLink__name">Harlan Ellison</span></a>
  <a href="https://catalog.test/author/show/999.Some_Translator"><span class="ContributorLink__role">(Translator)</span></a>
</div>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"apolloState":{
  "Book:kca://book/amzn1.gr.book.v1.abc":{
    "description({\"stripped\":true})":"A chilling classic.",
    "details":{
      "publisher":"Ace",
      "format":"Paperback",
      "publicationTime":428544000000,
      "numPages":224,
      "language":{"name":"English"},
      "isbn":"0441363954",
      "isbn13":"9780441363957",
      "asin":null
    },
    "bookGenres":[{"genre":{"name":"Science Fiction"}},{"genre":{"name":"Horror"}}]
  },
  "Work:kca://work/amzn1.gr.work.v1.def":{
    "details":{
      "webUrl":"https://www.goodreads.com/work/1234.Work",
      "originalTitle":"I Have No Mouth and I Must Scream (Some Series #1)",
      "publicationTime":-63158400000,
      "awardsWon":[{
        "name":"Hugo Award",
        "webUrl":"https://www.goodreads.com/award/show/18-hugo-award",
        "awardedAt":-38880000000,
        "category":null,
        "designation":"WINNER"
      }],
      "places":[{
        "name":"AM's complex",
        "webUrl":"https://www.goodreads.com/places/999-am-s-complex",
        "countryName":null,
        "year":"2109"
      }],
      "characters":[{"name":"AM"},{"name":"Ted"}]
    },
    "stats":{
      "ratingsCountDist":[10,20,30,40,100],
      "textReviewsLanguageCounts":[{"isoLanguageCode":"en","count":50},{"isoLanguageCode":"pl","count":5}],
      "textReviewsCount":80
    }
  }
}}}}
</script>
</body></html>`

const seriesHTML = `<html><body>
<div class="responsiveSeriesHeader__title"><h1>Some Series by Various Authors</h1></div>
<div class="listWithDividers__item">
  <h3>Book 1</h3>
  <a href="/book/show/13529.I_Have_No_Mouth_and_I_Must_Scream">first</a>
</div>
<div class="listWithDividers__item">
  <h3>Book 1.5</h3>
  <a href="/book/show/61179.Deathbird_Stories">interlude</a>
</div>
<div class="listWithDividers__item">
  <h3>Book 1-2</h3>
  <a href="/book/show/99.Omnibus_Edition">omnibus</a>
</div>
<div class="listWithDividers__item">
  <h3>Related works</h3>
  <a href="/book/show/1.Unrelated">unrelated</a>
</div>
</body></html>`

const shelvesHTML = `<html><body>
<div class="leftContainer">
  <span class="smallText">Showing 1-100 of 2,100</span>
  <div class="shelfStat"><a href="#">to-read</a><div class="smallText">1,500 people</div></div>
  <div class="shelfStat"><a href="#">sci-fi</a><div class="smallText">300 people</div></div>
  <div class="shelfStat"><a href="#">empty-shelf</a><div class="smallText">no data</div></div>
</div>
</body></html>`

const editionsHTML = `<html><body>
<div class="left workInfo"><span class="smallText">Showing 1-3 of 120</span></div>
<div class="elementList clearFix">
  <a class="bookTitle">I Have No Mouth and I Must Scream (SF Masterworks)</a>
  <div class="moreDetails hideDetails">
    <div class="dataRow"><div class="dataTitle">Edition language:</div><div class="dataValue">English</div></div>
  </div>
</div>
<div class="elementList clearFix">
  <a class="bookTitle">Nie mam ust, a muszę krzyczeć</a>
  <div class="moreDetails hideDetails">
    <div class="dataRow"><div class="dataTitle">Edition language:</div><div class="dataValue">Polish</div></div>
  </div>
</div>
<div class="elementList clearFix">
  <a class="bookTitle">Untagged Edition</a>
  <div class="moreDetails hideDetails"></div>
</div>
</body></html>`

func newBookAssembler(fetcher *stubFetcher, t *testing.T) *BookAssembler {
	authors := newAuthorAssembler(fetcher, t)
	return NewBookAssembler(fetcher, testSite(), authors, testClassifier(t, 10_000_000))
}

func TestBookAssemble(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://catalog.test/book/show/13529.I_Have_No_Mouth_and_I_Must_Scream": bookPrimaryHTML,
		"https://catalog.test/author/list/7415.Harlan_Ellison":                   authorListHTML,
		"https://catalog.test/series/123-some-series":                            seriesHTML,
		"https://catalog.test/work/shelves/1234.Work":                            shelvesHTML,
		"https://catalog.test/work/editions/1234?page=1&per_page=100":            editionsHTML,
	}}
	assembler := newBookAssembler(fetcher, t)

	book, err := assembler.Assemble(context.Background(), "13529.I_Have_No_Mouth_and_I_Must_Scream")
	require.NoError(t, err)

	assert.Equal(t, "I Have No Mouth and I Must Scream", book.Title)
	assert.Equal(t, "I Have No Mouth and I Must Scream", book.OriginalTitle,
		"原題からシリーズ表記が取り除かれる")
	assert.Equal(t, "13529.I_Have_No_Mouth_and_I_Must_Scream", book.BookID)
	assert.Equal(t, "1234.Work", book.WorkID)

	// 役割つきの寄稿者（翻訳者）は著者に数えない
	require.Len(t, book.Authors, 1)
	assert.Equal(t, "Harlan Ellison", book.Authors[0].Name)
	assert.Equal(t, "7415.Harlan_Ellison", book.Authors[0].ID)

	require.NotNil(t, book.FirstPublication)
	expected := time.UnixMilli(-63158400000).Add(-8 * time.Hour).UTC()
	assert.Equal(t, expected, *book.FirstPublication)

	require.NotNil(t, book.Series)
	assert.Equal(t, "Some Series", book.Series.Title)
	assert.Equal(t, "123-some-series", book.Series.ID)
	assert.Equal(t, map[float64]string{
		1:   "13529.I_Have_No_Mouth_and_I_Must_Scream",
		1.5: "61179.Deathbird_Stories",
	}, book.Series.Layout, "'Book N' 形式でない項目と合本項目は配置に入らない")
	assert.Equal(t, "I Have No Mouth and I Must Scream (Some Series #1)", book.CompleteTitle())

	details := book.Details
	assert.Equal(t, "A chilling classic.", details.Description)
	assert.Equal(t, "Ace", details.MainEdition.Publisher)
	assert.Equal(t, "Paperback", details.MainEdition.Format)
	require.NotNil(t, details.MainEdition.Pages)
	assert.Equal(t, 224, *details.MainEdition.Pages)
	assert.Equal(t, "en", details.MainEdition.Language)
	assert.Equal(t, "", details.MainEdition.ASIN)
	assert.Equal(t, []string{"Science Fiction", "Horror"}, details.Genres)
	require.Len(t, details.Awards, 1)
	assert.Equal(t, "18-hugo-award", details.Awards[0].ID)
	assert.Equal(t, "WINNER", details.Awards[0].Designation)
	require.Len(t, details.Places, 1)
	assert.Equal(t, "999-am-s-complex", details.Places[0].ID)
	require.NotNil(t, details.Places[0].Year)
	assert.Equal(t, 2109, details.Places[0].Year.Year())
	assert.Equal(t, []string{"AM", "Ted"}, details.Characters)

	stats := book.Stats
	assert.Equal(t, 200, stats.TotalRatings())
	assert.Equal(t, 80, stats.TotalReviews)
	assert.Equal(t, map[int]string{1500: "to-read", 300: "sci-fi"}, stats.TopShelves,
		"登録者数の読めない棚は除かれる")
	assert.Equal(t, 2100, stats.TotalShelves)
	assert.Equal(t, map[string][]string{
		"en": {"I Have No Mouth and I Must Scream"},
		"pl": {"Nie mam ust, a muszę krzyczeć"},
	}, stats.Editions, "言語不明の版は除かれ、括弧以降は切り落とされる")
	assert.Equal(t, 120, stats.TotalEditions)
	assert.Equal(t, catalog.Obscure, stats.Renown)
}

func TestAssembleSeriesSkipsOmnibusNumbering(t *testing.T) {
	omnibusOnly := `<html><body>
<div class="responsiveSeriesHeader__title"><h1>The Lost Fleet by Jack Campbell</h1></div>
<div class="listWithDividers__item">
  <h3>Book 1</h3>
  <a href="/book/show/1.Dauntless">first</a>
</div>
<div class="listWithDividers__item">
  <h3>Book 1-2</h3>
  <a href="/book/show/99.Omnibus_Edition">omnibus</a>
</div>
</body></html>`
	fetcher := &stubFetcher{pages: map[string]string{
		"https://catalog.test/series/7-the-lost-fleet": omnibusOnly,
	}}
	assembler := newBookAssembler(fetcher, t)

	series, err := assembler.assembleSeries(context.Background(), "7-the-lost-fleet")
	require.NoError(t, err)
	require.NotNil(t, series)
	assert.Equal(t, map[float64]string{1: "1.Dauntless"}, series.Layout,
		"巻数が実数として読めない合本項目は巻12などに化けず、配置から除かれる")
}

func TestBookAssembleSeriesWithoutLayout(t *testing.T) {
	noLayout := `<html><body>
<div class="responsiveSeriesHeader__title"><h1>Dangerous Visions Series</h1></div>
<div class="listWithDividers__item"><h3>Related works</h3></div>
</body></html>`
	fetcher := &stubFetcher{pages: map[string]string{
		"https://catalog.test/series/99-dangerous-visions": noLayout,
	}}
	assembler := newBookAssembler(fetcher, t)

	series, err := assembler.assembleSeries(context.Background(), "99-dangerous-visions")
	require.NoError(t, err, "'Book N' 項目のないシリーズページは妥当")
	assert.Nil(t, series)
}

func TestBookAssembleUnparseablePrimary(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://catalog.test/book/show/1.Nothing": `<html><body><p>gone</p></body></html>`,
	}}
	assembler := newBookAssembler(fetcher, t)

	_, err := assembler.Assemble(context.Background(), "1.Nothing")
	require.Error(t, err)
	assert.True(t, IsParsingError(err), "構造不一致は恒久的なパースエラー")
}

// editionsPageHTML は、指定数の英語版項目を持つ版一覧ページを生成します。
func editionsPageHTML(page, items, total int) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	if page == 1 {
		fmt.Fprintf(&b, `<div class="left workInfo"><span class="smallText">Showing 1-100 of %d</span></div>`, total)
	}
	for i := 0; i < items; i++ {
		fmt.Fprintf(&b, `<div class="elementList clearFix">
  <a class="bookTitle">Edition %d-%d</a>
  <div class="moreDetails hideDetails">
    <div class="dataRow"><div class="dataTitle">Edition language:</div><div class="dataValue">English</div></div>
  </div>
</div>`, page, i)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func TestAssembleEditionsPageCap(t *testing.T) {
	pages := make(map[string]string)
	// 15ページ分を用意しても、取得は10ページで打ち切られる
	for page := 1; page <= 15; page++ {
		url := fmt.Sprintf("https://catalog.test/work/editions/1234?page=%d&per_page=100", page)
		pages[url] = editionsPageHTML(page, 100, 5000)
	}
	fetcher := &stubFetcher{pages: pages}
	assembler := newBookAssembler(fetcher, t)

	editions, total, err := assembler.assembleEditions(context.Background(), "1234.Work")
	require.NoError(t, err)
	assert.Equal(t, 5000, total)
	assert.Len(t, fetcher.calls, 10, "ページ上限で打ち切られる")
	assert.Len(t, editions["en"], 1000)
}

func TestAssembleEditionsStopsOnShortPage(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://catalog.test/work/editions/1234?page=1&per_page=100": editionsPageHTML(1, 100, 142),
		"https://catalog.test/work/editions/1234?page=2&per_page=100": editionsPageHTML(2, 42, 142),
	}}
	assembler := newBookAssembler(fetcher, t)

	editions, total, err := assembler.assembleEditions(context.Background(), "1234.Work")
	require.NoError(t, err)
	assert.Equal(t, 142, total)
	assert.Len(t, fetcher.calls, 2)
	assert.Len(t, editions["en"], 142)
}
