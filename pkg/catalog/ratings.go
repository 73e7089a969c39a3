package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrRankNotInScheme は、ターゲット順位系列に含まれない順位を照会した際に返されます。
var ErrRankNotInScheme = errors.New("順位がターゲット順位系列に定義されていません")

// RatingsDistribution は、任意の順位→票数ヒストグラムを保持し、
// 指定されたターゲット順位系列へ自らを再スケーリングできる評価分布です。
//
// 再スケーリングは比例的な再ビニングであり、ビン内の一様分布を仮定した
// 近似です。バケット境界の算出式は過去ダンプとの互換性のために固定です。
type RatingsDistribution struct {
	ranks  []float64 // 昇順のソース順位
	votes  map[float64]int
	scheme []float64 // 昇順・重複排除済みのターゲット順位系列
}

// NewRatingsDistribution は評価分布を構築します。
//
// dist は3つ以上の非負順位から票数への対応でなければなりません。
// scheme を省略した場合は dist の順位がそのまま採用され、
// 再スケーリングは実質的に行われません。
func NewRatingsDistribution(dist map[float64]int, scheme ...float64) (*RatingsDistribution, error) {
	if len(dist) < 3 {
		return nil, fmt.Errorf("評価分布には3つ以上の非負順位が必要です: %v", dist)
	}
	ranks := make([]float64, 0, len(dist))
	for rank := range dist {
		if rank < 0 {
			return nil, fmt.Errorf("評価分布には3つ以上の非負順位が必要です: %v", dist)
		}
		ranks = append(ranks, rank)
	}
	sort.Float64s(ranks)

	if len(scheme) == 0 {
		scheme = ranks
	}
	deduped := dedupeSorted(scheme)
	if len(deduped) < 3 {
		return nil, fmt.Errorf("順位系列には3つ以上の非負数が必要です: %v", scheme)
	}
	for _, rank := range deduped {
		if rank < 0 {
			return nil, fmt.Errorf("順位系列には3つ以上の非負数が必要です: %v", scheme)
		}
	}

	votes := make(map[float64]int, len(dist))
	for rank, v := range dist {
		votes[rank] = v
	}
	return &RatingsDistribution{ranks: ranks, votes: votes, scheme: deduped}, nil
}

// Ranks はソース順位を昇順で返します。
func (d *RatingsDistribution) Ranks() []float64 {
	out := make([]float64, len(d.ranks))
	copy(out, d.ranks)
	return out
}

// Scheme はターゲット順位系列を昇順で返します。
func (d *RatingsDistribution) Scheme() []float64 {
	out := make([]float64, len(d.scheme))
	copy(out, d.scheme)
	return out
}

// Total は全票数の合計を返します。
func (d *RatingsDistribution) Total() int {
	total := 0
	for _, v := range d.votes {
		total += v
	}
	return total
}

// AvgRating は加重平均評価を返します。票数がゼロの場合は 0 を返します。
func (d *RatingsDistribution) AvgRating() float64 {
	total := d.Total()
	if total == 0 {
		return 0
	}
	var sum float64
	for rank, v := range d.votes {
		sum += rank * float64(v)
	}
	return sum / float64(total)
}

// Scaled は、ターゲット順位系列へ再スケーリングした分布を返します。
// ターゲット系列がソース順位と（順序を問わず）一致する場合は
// 保持しているヒストグラムをそのまま返します（冪等性の不変条件）。
func (d *RatingsDistribution) Scaled() map[float64]int {
	if equalFloats(d.scheme, d.ranks) {
		out := make(map[float64]int, len(d.votes))
		for rank, v := range d.votes {
			out[rank] = v
		}
		return out
	}

	maxRank := d.scheme[len(d.scheme)-1]
	out := make(map[float64]int, len(d.scheme))
	for i, rank := range d.scheme {
		switch i {
		case 0:
			out[rank] = d.spanVotes(0, round3(rank/maxRank))
		case len(d.scheme) - 1:
			previous := d.scheme[i-1]
			out[rank] = d.spanVotes(round3(previous/maxRank), 1)
		default:
			previous := d.scheme[i-1]
			out[rank] = d.spanVotes(round3(previous/maxRank), round3(rank/maxRank))
		}
	}
	return out
}

// spanVotes は、正規化済みソース順位が (min, max] に収まる票数を合計します。
func (d *RatingsDistribution) spanVotes(min, max float64) int {
	maxSource := d.ranks[len(d.ranks)-1]
	total := 0
	for _, rank := range d.ranks {
		normalized := rank / maxSource
		if normalized > min && normalized <= max {
			total += d.votes[rank]
		}
	}
	return total
}

// Ratings は、ターゲット順位系列上の順位に対する（再スケーリング後の）票数を返します。
func (d *RatingsDistribution) Ratings(rank float64) (int, error) {
	if !containsFloat(d.scheme, rank) {
		return 0, fmt.Errorf("%w: 順位 %v, 系列 %v", ErrRankNotInScheme, rank, d.scheme)
	}
	return d.Scaled()[rank], nil
}

// RatingsPercent は、順位に対する票数の百分率を返します。総票数がゼロの場合は 0 です。
func (d *RatingsDistribution) RatingsPercent(rank float64) (float64, error) {
	votes, err := d.Ratings(rank)
	if err != nil {
		return 0, err
	}
	total := d.Total()
	if total == 0 {
		return 0, nil
	}
	return float64(votes) * 100 / float64(total), nil
}

// --- 五つ星分布 ---

// FiveStars は、(1, 2, 3, 4, 5) 固定の順位系列を持つ評価分布です。
type FiveStars struct {
	*RatingsDistribution
}

// NewFiveStars は五つ星評価分布を構築します。
func NewFiveStars(dist map[float64]int) (*FiveStars, error) {
	inner, err := NewRatingsDistribution(dist, 1, 2, 3, 4, 5)
	if err != nil {
		return nil, err
	}
	return &FiveStars{RatingsDistribution: inner}, nil
}

// MarshalJSON は再スケーリング後の分布を {"1": n, ..., "5": n} 形式で書き出します。
func (f *FiveStars) MarshalJSON() ([]byte, error) {
	scaled := f.Scaled()
	out := make(map[string]int, len(scaled))
	for rank, votes := range scaled {
		out[strconv.FormatFloat(rank, 'f', -1, 64)] = votes
	}
	return json.Marshal(out)
}

// UnmarshalJSON は {"1": n, ...} 形式から五つ星分布を復元します。
func (f *FiveStars) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	dist := make(map[float64]int, len(raw))
	for key, votes := range raw {
		rank, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return fmt.Errorf("評価分布の順位キーが不正です: %q", key)
		}
		dist[rank] = votes
	}
	parsed, err := NewFiveStars(dist)
	if err != nil {
		return err
	}
	*f = *parsed
	return nil
}

// --- 内部ヘルパー ---

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func dedupeSorted(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	out := make([]float64, 0, len(sorted))
	for i, v := range sorted {
		if i == 0 || sorted[i-1] != v {
			out = append(out, v)
		}
	}
	return out
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsFloat(values []float64, x float64) bool {
	for _, v := range values {
		if v == x {
			return true
		}
	}
	return false
}
