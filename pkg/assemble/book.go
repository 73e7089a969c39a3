package assemble

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
	"github.com/shouni/book-meta-pipe-go/pkg/fetch"
)

const (
	// 版一覧の1ページあたりの項目数。
	editionsPageSize = 100
	// 版一覧の取得上限ページ数。古い書籍では600ページ近い事例があるため打ち切る。
	editionsPageCap = 10

	publicationDateLayout = "January 2, 2006"
)

// BookAssembler は書籍レコードを組み立てます。
//
// 書籍プライマリページを起点に、シリーズ・本棚・版一覧の従属ページ群を辿り、
// 統合された DetailedBook レコードを構築します。
type BookAssembler struct {
	fetcher    fetch.Fetcher
	site       Site
	authors    *AuthorAssembler
	classifier *catalog.RenownClassifier // アンカー作品の評価数が基準
}

// NewBookAssembler は依存関係を注入して BookAssembler を初期化します。
func NewBookAssembler(fetcher fetch.Fetcher, site Site,
	authors *AuthorAssembler, classifier *catalog.RenownClassifier) *BookAssembler {
	return &BookAssembler{
		fetcher:    fetcher,
		site:       site,
		authors:    authors,
		classifier: classifier,
	}
}

// Assemble は書籍IDから完全な書籍レコードを組み立てます。
func (b *BookAssembler) Assemble(ctx context.Context, bookID string) (*catalog.DetailedBook, error) {
	start := time.Now()
	primary, err := b.assemblePrimary(ctx, bookID)
	if err != nil {
		return nil, err
	}
	var series *catalog.BookSeries
	if primary.seriesID != "" {
		series, err = b.assembleSeries(ctx, primary.seriesID)
		if err != nil {
			return nil, err
		}
	}
	topShelves, totalShelves, err := b.assembleShelves(ctx, primary.script.workID)
	if err != nil {
		return nil, err
	}
	editions, totalEditions, err := b.assembleEditions(ctx, primary.script.workID)
	if err != nil {
		return nil, err
	}
	stats := catalog.BookStats{
		Ratings:       primary.script.ratings,
		Reviews:       primary.script.reviews,
		TotalReviews:  primary.script.totalReviews,
		TopShelves:    topShelves,
		TotalShelves:  totalShelves,
		Editions:      editions,
		TotalEditions: totalEditions,
	}
	stats.Renown, err = b.classifier.Classify(stats.TotalRatings())
	if err != nil {
		return nil, err
	}
	book := &catalog.DetailedBook{
		Title:            primary.title,
		OriginalTitle:    primary.script.originalTitle,
		BookID:           bookID,
		WorkID:           primary.script.workID,
		Authors:          primary.authors,
		FirstPublication: primary.script.firstPublication,
		Series:           series,
		Details:          primary.script.details,
		Stats:            stats,
	}
	slog.Info("書籍レコードを組み立てました",
		"book_id", bookID,
		"title", book.Title,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return book, nil
}

// --- プライマリページ ---

type primaryPage struct {
	script   *scriptTagData
	title    string
	authors  []catalog.SimpleAuthor
	seriesID string
}

func (b *BookAssembler) assemblePrimary(ctx context.Context, bookID string) (*primaryPage, error) {
	doc, err := b.fetcher.FetchDocument(ctx, b.site.BookURL(bookID))
	if err != nil {
		return nil, err
	}
	script, err := parseMetaScript(doc)
	if err != nil {
		return nil, err
	}
	title, err := parseBookTitle(doc)
	if err != nil {
		return nil, err
	}
	authors, err := b.assembleContributors(ctx, doc)
	if err != nil {
		return nil, err
	}
	seriesID, err := parseSeriesID(doc)
	if err != nil {
		return nil, err
	}
	if script.firstPublication == nil {
		// メタデータブロックに初版刊行日がない場合は表示用の刊行情報で補う
		script.firstPublication, err = parseFirstPublication(doc)
		if err != nil {
			return nil, err
		}
	}
	return &primaryPage{
		script:   script,
		title:    title,
		authors:  authors,
		seriesID: seriesID,
	}, nil
}

func parseBookTitle(doc *goquery.Document) (string, error) {
	tag := doc.Find(`h1[data-testid="bookTitle"]`).First()
	if tag.Length() == 0 {
		return "", parsingErrorf("書籍タイトルのタグがありません")
	}
	return catalog.SanitizeText(tag.Text()), nil
}

// parseFirstPublication は表示用の刊行情報をパースします。想定される文字列の例:
//
//	'First published October 1, 1967' または 'Published October 1, 1967'
func parseFirstPublication(doc *goquery.Document) (*time.Time, error) {
	tag := doc.Find(`p[data-testid="publicationInfo"]`).First()
	if tag.Length() == 0 {
		return nil, parsingErrorf("初版刊行情報のタグがありません")
	}
	parts := strings.Split(tag.Text(), "ublished")
	text := strings.TrimSpace(parts[len(parts)-1])
	t, err := time.Parse(publicationDateLayout, text)
	if err != nil {
		return nil, parsingErrorf("初版刊行日をパースできません: %q", text)
	}
	return &t, nil
}

// assembleContributors は寄稿者行をパースし、役割表記のない寄稿者（著者本人）の
// 簡略版レコードを組み立てます。全員に役割がある場合は先頭の寄稿者で代替します。
func (b *BookAssembler) assembleContributors(ctx context.Context, doc *goquery.Document) ([]catalog.SimpleAuthor, error) {
	container := doc.Find("div.ContributorLinksList").First()
	if container.Length() == 0 {
		return nil, parsingErrorf("寄稿者の 'div' タグがありません")
	}
	type contributor struct {
		authorID string
		hasRole  bool
	}
	var contributors []contributor
	var parseErr error
	container.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			parseErr = parsingErrorf("寄稿者の 'a' タグに 'href' 属性がありません")
			return false
		}
		id := catalog.URLToID(href)
		if id == "" {
			parseErr = parsingErrorf("URLから著者IDを抽出できません: %q", href)
			return false
		}
		contributors = append(contributors, contributor{
			authorID: id,
			hasRole:  a.Find("span.ContributorLink__role").Length() > 0,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(contributors) == 0 {
		return nil, parsingErrorf("寄稿者の 'a' タグがありません")
	}
	var authorIDs []string
	for _, c := range contributors {
		if !c.hasRole {
			authorIDs = append(authorIDs, c.authorID)
		}
	}
	if len(authorIDs) == 0 {
		authorIDs = []string{contributors[0].authorID}
	}
	authors := make([]catalog.SimpleAuthor, 0, len(authorIDs))
	for _, id := range authorIDs {
		author, err := b.authors.AssembleSimple(ctx, id)
		if err != nil {
			return nil, err
		}
		authors = append(authors, *author)
	}
	return authors, nil
}

// parseSeriesID はタイトル節からシリーズIDを探します。リンクの欠如は妥当です。
func parseSeriesID(doc *goquery.Document) (string, error) {
	a := doc.Find("div.BookPageTitleSection__title a").First()
	if a.Length() == 0 {
		return "", nil
	}
	href, _ := a.Attr("href")
	id := catalog.URLToID(href)
	if id == "" {
		return "", parsingErrorf("URLからシリーズIDを抽出できません: %q", href)
	}
	return id, nil
}

// --- シリーズページ ---

// assembleSeries はシリーズページをパースします。'Book N' 項目のないシリーズ
// ページは配置なしの妥当な結果として nil を返します。
func (b *BookAssembler) assembleSeries(ctx context.Context, seriesID string) (*catalog.BookSeries, error) {
	doc, err := b.fetcher.FetchDocument(ctx, b.site.SeriesURL(seriesID))
	if err != nil {
		return nil, err
	}
	titleTag := doc.Find("div.responsiveSeriesHeader__title h1").First()
	if titleTag.Length() == 0 {
		return nil, parsingErrorf("シリーズタイトルのタグがありません (ID: %s)", seriesID)
	}
	title := titleTag.Text()
	if before, _, found := strings.Cut(title, "by"); found {
		title = before
	} else if before, _, found := strings.Cut(title, "Series"); found {
		title = before
	}
	title = strings.TrimSpace(title)

	layout := make(map[float64]string)
	var parseErr error
	doc.Find("div.listWithDividers__item").EachWithBreak(func(i int, item *goquery.Selection) bool {
		numbering, ok := seriesNumbering(item.Find("h3").First())
		if !ok {
			return true
		}
		bookID := seriesItemBookID(item)
		if bookID == "" {
			parseErr = parsingErrorf("シリーズ項目 #%d に書籍IDのデータがありません", i+1)
			return false
		}
		layout[numbering] = bookID
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(layout) == 0 {
		return nil, nil
	}
	return &catalog.BookSeries{Title: title, ID: seriesID, Layout: layout}, nil
}

// seriesNumbering は、見出しが 'Book N' 形式のときに限り巻数を返します。
// 巻数は実数として厳密に読まれ、'Book 1-2' のような合本項目は配置から除かれます。
func seriesNumbering(h3 *goquery.Selection) (float64, bool) {
	if h3.Length() == 0 {
		return 0, false
	}
	first, second, found := strings.Cut(strings.TrimSpace(h3.Text()), " ")
	if !found || !strings.EqualFold(first, "book") {
		return 0, false
	}
	numbering, err := strconv.ParseFloat(second, 64)
	if err != nil {
		return 0, false
	}
	return numbering, true
}

func seriesItemBookID(item *goquery.Selection) string {
	var bookID string
	item.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, "/book/show/") {
			return true
		}
		bookID = strings.Replace(href, "/book/show/", "", 1)
		return false
	})
	return bookID
}

// --- 本棚統計ページ ---

func (b *BookAssembler) assembleShelves(ctx context.Context, workID string) (map[int]string, int, error) {
	doc, err := b.fetcher.FetchDocument(ctx, b.site.ShelvesURL(workID))
	if err != nil {
		return nil, 0, err
	}
	container := doc.Find("div.leftContainer").First()
	if container.Length() == 0 {
		return nil, 0, parsingErrorf("本棚ページに 'leftContainer' タグがありません")
	}
	span := container.Find("span.smallText").First()
	if span.Length() == 0 {
		return nil, 0, parsingErrorf("本棚総数の 'span' タグがありません")
	}
	fields := strings.Fields(span.Text())
	if len(fields) == 0 {
		return nil, 0, parsingErrorf("本棚総数の表記が不正です: %q", span.Text())
	}
	totalShelves, err := extractInt(fields[len(fields)-1])
	if err != nil {
		return nil, 0, parsingErrorf("本棚総数をパースできません: %q", fields[len(fields)-1])
	}

	shelves := make(map[int]string)
	doc.Find("div.shelfStat").Each(func(_ int, tag *goquery.Selection) {
		name := strings.TrimSpace(tag.Find("a").First().Text())
		if name == "" {
			return
		}
		shelvings, ok := parseShelvings(tag)
		if !ok {
			return
		}
		shelves[shelvings] = name
	})
	return shelves, totalShelves, nil
}

// parseShelvings は '1,512 people' 形式の登録者数を探します。欠如は妥当です。
func parseShelvings(tag *goquery.Selection) (int, bool) {
	var shelvings int
	var found bool
	tag.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if !strings.Contains(div.Text(), "people") {
			return true
		}
		if value, err := extractInt(div.Text()); err == nil {
			shelvings, found = value, true
		}
		return false
	})
	return shelvings, found
}

// --- 版一覧ページ ---

// assembleEditions は版一覧を先頭から走査し、言語コード別の版タイトル一覧と
// 報告された総版数を返します。取得は editionsPageCap ページで打ち切られます。
func (b *BookAssembler) assembleEditions(ctx context.Context, workID string) (map[string][]string, int, error) {
	workNumericID, err := catalog.NumericID(workID)
	if err != nil {
		return nil, 0, parsingErrorf("作品IDから数値部分を抽出できません: %q", workID)
	}
	titlesByLang := make(map[string]map[string]struct{})
	totalEditions := 0
	for page := 1; ; page++ {
		count, total, err := b.parseEditionsPage(ctx, workNumericID, page, titlesByLang)
		if err != nil {
			return nil, 0, err
		}
		if page == 1 {
			totalEditions = total
		}
		if count < editionsPageSize || page >= editionsPageCap {
			break
		}
	}
	editions := make(map[string][]string, len(titlesByLang))
	for lang, titles := range titlesByLang {
		sorted := make([]string, 0, len(titles))
		for title := range titles {
			sorted = append(sorted, title)
		}
		sort.Strings(sorted)
		editions[lang] = sorted
	}
	return editions, totalEditions, nil
}

// parseEditionsPage は版一覧の1ページをパースし、項目数と（1ページ目のみ）
// 報告された総版数を返します。言語不明の項目は集計から除かれます。
func (b *BookAssembler) parseEditionsPage(ctx context.Context, workNumericID, page int,
	titlesByLang map[string]map[string]struct{}) (int, int, error) {
	doc, err := b.fetcher.FetchDocument(ctx, b.site.EditionsURL(workNumericID, page))
	if err != nil {
		return 0, 0, err
	}
	total := 0
	if page == 1 {
		workInfo := doc.Find("div.left.workInfo").First()
		if workInfo.Length() == 0 {
			return 0, 0, parsingErrorf("版一覧ページに 'left workInfo' タグがありません")
		}
		span := workInfo.Find("span.smallText").First()
		if span.Length() == 0 {
			return 0, 0, parsingErrorf("総版数の 'span' タグがありません")
		}
		fields := strings.Fields(span.Text())
		if len(fields) == 0 {
			return 0, 0, parsingErrorf("総版数の表記が不正です: %q", span.Text())
		}
		total, err = extractInt(fields[len(fields)-1])
		if err != nil {
			return 0, 0, parsingErrorf("総版数をパースできません: %q", fields[len(fields)-1])
		}
	}
	count := 0
	doc.Find("div.elementList.clearFix").Each(func(_ int, item *goquery.Selection) {
		count++
		title := item.Find("a.bookTitle").First().Text()
		if before, _, found := strings.Cut(title, "("); found {
			title = before
		}
		title = strings.TrimSpace(title)
		lang := editionLanguage(item)
		code := catalog.NameToLangCode(lang)
		if title == "" || lang == "" || code == "" {
			return
		}
		if titlesByLang[code] == nil {
			titlesByLang[code] = make(map[string]struct{})
		}
		titlesByLang[code][title] = struct{}{}
	})
	return count, total, nil
}

// editionLanguage は折りたたみ詳細から版の言語名を探します。欠如は妥当です。
func editionLanguage(item *goquery.Selection) string {
	var lang string
	item.Find("div.moreDetails.hideDetails div.dataRow").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !strings.Contains(row.Text(), "Edition language:") {
			return true
		}
		lang = strings.TrimSpace(row.Find("div.dataValue").First().Text())
		return false
	})
	return lang
}
