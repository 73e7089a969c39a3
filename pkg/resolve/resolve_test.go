package resolve

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/book-meta-pipe-go/pkg/assemble"
	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
)

type stubFetcher struct {
	pages map[string]string
	calls []string
}

func (s *stubFetcher) FetchDocument(_ context.Context, url string) (*goquery.Document, error) {
	s.calls = append(s.calls, url)
	html, ok := s.pages[url]
	if !ok {
		return nil, fmt.Errorf("想定外のURLが要求されました: %s", url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func newResolver(t *testing.T, fetcher *stubFetcher) *Resolver {
	t.Helper()
	site := assemble.Site{BaseURL: "https://catalog.test"}
	classifier, err := catalog.NewRenownClassifier(10_000_000)
	require.NoError(t, err)
	authors := assemble.NewAuthorAssembler(fetcher, site, classifier, classifier)
	return NewResolver(fetcher, site, authors)
}

func TestResolveAuthorIDPassthrough(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{}}
	resolver := newResolver(t, fetcher)

	for _, id := range []string{"7415.Harlan_Ellison", "9969571-ready-player-one", "40982390"} {
		got, err := resolver.ResolveAuthor(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	assert.Empty(t, fetcher.calls, "妥当なIDの解決にネットワークは使われない")
}

func TestResolveAuthorBySearch(t *testing.T) {
	searchHTML := `<html><body>
<span itemprop="author">
  <a href="https://catalog.test/author/show/999.Harlan_Wrongman?from_search=true">Harlan Wrongman</a>
</span>
<span itemprop="author">
  <a href="https://catalog.test/author/show/7415.Harlan_Ellison?from_search=true&from_srp=true">Harlan Ellison</a>
</span>
</body></html>`
	fetcher := &stubFetcher{pages: map[string]string{
		"https://catalog.test/search?q=Harlan+Ellison": searchHTML,
	}}
	resolver := newResolver(t, fetcher)

	id, err := resolver.ResolveAuthor(context.Background(), "Harlan Ellison")
	require.NoError(t, err)
	assert.Equal(t, "7415.Harlan_Ellison", id)
}

func TestResolveAuthorSearchNoMatch(t *testing.T) {
	searchHTML := `<html><body>
<span itemprop="author"><a href="https://catalog.test/author/show/1.Somebody_Else">Somebody Else</a></span>
</body></html>`
	fetcher := &stubFetcher{pages: map[string]string{
		"https://catalog.test/search?q=Harlan+Ellison": searchHTML,
	}}
	resolver := newResolver(t, fetcher)

	_, err := resolver.ResolveAuthor(context.Background(), "Harlan Ellison")
	require.Error(t, err)
	assert.True(t, IsResolutionError(err))
}

func offlineAuthors() []catalog.Author {
	return []catalog.Author{
		{
			Name: "Joe Haldeman",
			ID:   "12476.Joe_Haldeman",
			TopBooks: []catalog.Book{
				{Title: "The Forever War", ID: "21611.The_Forever_War"},
				{Title: "Ender’s Shadow Homage", ID: "2.Homage"},
			},
		},
		{
			Name: "Ursula K. Le Guin",
			ID:   "874602.Ursula_K_Le_Guin",
			TopBooks: []catalog.Book{
				{Title: "The Dispossessed: An Ambiguous Utopia", ID: "13651.The_Dispossessed"},
			},
		},
	}
}

func TestResolveBookOffline(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{}}
	resolver := newResolver(t, fetcher)
	ctx := context.Background()

	// 完全一致（大文字小文字を無視）
	id, err := resolver.ResolveBook(ctx, "the forever war", "Joe Haldeman", offlineAuthors())
	require.NoError(t, err)
	assert.Equal(t, "21611.The_Forever_War", id)

	// 著者はIDでも照合できる
	id, err = resolver.ResolveBook(ctx, "The Forever War", "12476.Joe_Haldeman", offlineAuthors())
	require.NoError(t, err)
	assert.Equal(t, "21611.The_Forever_War", id)

	// アポストロフィの字形差を吸収して照合する
	id, err = resolver.ResolveBook(ctx, "Ender's Shadow Homage", "Joe Haldeman", offlineAuthors())
	require.NoError(t, err)
	assert.Equal(t, "2.Homage", id)

	// 部分一致（照会が格納タイトルの一部）
	id, err = resolver.ResolveBook(ctx, "The Dispossessed", "Ursula K. Le Guin", offlineAuthors())
	require.NoError(t, err)
	assert.Equal(t, "13651.The_Dispossessed", id)

	assert.Empty(t, fetcher.calls, "オフラインで解決できればネットワークは使われない")
}

// authorBooksPage は、指定した書籍行を持つ最小の著者ページを生成します。
func authorBooksPage(name string, books ...[2]string) string {
	var rows strings.Builder
	for _, book := range books {
		fmt.Fprintf(&rows, `<tr><td>
  <a href="/book/show/%s" title="%s"></a>
  <span class="minirating">4.00 avg rating — 1,000 ratings</span>
</td></tr>`, book[0], book[1])
	}
	return fmt.Sprintf(`<html><body>
<div class="leftContainer">
  <a class="authorName">%s</a>
  <div class="">%s
Average rating 4.00 ·
50,000 ratings ·
1,000 reviews ·
shelved 10,000 times
  </div>
  <table class="tableList">%s</table>
</div>
</body></html>`, name, name, rows.String())
}

const haldemanSearchHTML = `<html><body>
<span itemprop="author">
  <a href="https://catalog.test/author/show/12476.Joe_Haldeman?from_search=true">Joe Haldeman</a>
</span>
</body></html>`

func TestResolveBookBySearch(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://catalog.test/search?q=Joe+Haldeman": haldemanSearchHTML,
		"https://catalog.test/author/list/12476.Joe_Haldeman": authorBooksPage("Joe Haldeman",
			[2]string{"21611.The_Forever_War", "The Forever War"}),
	}}
	resolver := newResolver(t, fetcher)

	id, err := resolver.ResolveBook(context.Background(), "The Forever War", "Joe Haldeman", nil)
	require.NoError(t, err)
	assert.Equal(t, "21611.The_Forever_War", id)
	assert.Equal(t, []string{
		"https://catalog.test/search?q=Joe+Haldeman",
		"https://catalog.test/author/list/12476.Joe_Haldeman",
	}, fetcher.calls, "名前検索1回と著者ページ取得1回で解決される")
}

func TestResolveBookFallsBackToExtendedList(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://catalog.test/search?q=Joe+Haldeman": haldemanSearchHTML,
		"https://catalog.test/author/list/12476.Joe_Haldeman": authorBooksPage("Joe Haldeman",
			[2]string{"21611.The_Forever_War", "The Forever War"}),
		"https://catalog.test/author/list/12476.Joe_Haldeman?page=1&per_page=100": authorBooksPage("Joe Haldeman",
			[2]string{"21611.The_Forever_War", "The Forever War"},
			[2]string{"978531.Worlds_Apart", "Worlds Apart"}),
	}}
	resolver := newResolver(t, fetcher)

	id, err := resolver.ResolveBook(context.Background(), "Worlds Apart", "Joe Haldeman", nil)
	require.NoError(t, err)
	assert.Equal(t, "978531.Worlds_Apart", id)
	require.Len(t, fetcher.calls, 3, "既定の一覧で見つからない書名は拡張一覧でもう一度だけ照合される")
	assert.Contains(t, fetcher.calls[2], "per_page=100")
}

func TestResolveBookSearchNoMatch(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://catalog.test/search?q=Joe+Haldeman": haldemanSearchHTML,
		"https://catalog.test/author/list/12476.Joe_Haldeman": authorBooksPage("Joe Haldeman",
			[2]string{"21611.The_Forever_War", "The Forever War"}),
		"https://catalog.test/author/list/12476.Joe_Haldeman?page=1&per_page=100": authorBooksPage("Joe Haldeman",
			[2]string{"21611.The_Forever_War", "The Forever War"}),
	}}
	resolver := newResolver(t, fetcher)

	_, err := resolver.ResolveBook(context.Background(), "Unknown Novel", "Joe Haldeman", nil)
	require.Error(t, err)
	assert.True(t, IsResolutionError(err))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Stanisław Lem", SanitizeInput("stanislaw lem"))
	assert.Equal(t, "Reamde", SanitizeInput("Readme"))
	assert.Equal(t, "The Island of Dr. Moreau", SanitizeInput("The Island of Doctor Moreau"))
	assert.Equal(t, "Plain Title", SanitizeInput("  Plain   Title "))
}
