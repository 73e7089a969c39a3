package catalog

import (
	"fmt"
)

// --- 知名度 ---

// Renown は、評価数をアンカー作品の評価数と比較して得られる、
// 9段階の順序付き知名度区分です。
type Renown int

const (
	Obscure Renown = iota
	LittleKnown
	SomewhatKnown
	Known
	WellKnown
	Popular
	Famous
	Star
	Superstar
)

var renownNames = [...]string{
	"OBSCURE",
	"LITTLE_KNOWN",
	"SOMEWHAT_KNOWN",
	"KNOWN",
	"WELL_KNOWN",
	"POPULAR",
	"FAMOUS",
	"STAR",
	"SUPERSTAR",
}

func (r Renown) String() string {
	if r < Obscure || r > Superstar {
		return fmt.Sprintf("Renown(%d)", int(r))
	}
	return renownNames[r]
}

// ParseRenown は、ダンプに書き出された区分名から Renown を復元します。
func ParseRenown(name string) (Renown, error) {
	for i, candidate := range renownNames {
		if candidate == name {
			return Renown(i), nil
		}
	}
	return 0, fmt.Errorf("未知の知名度区分です: %q", name)
}

func (r Renown) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Renown) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseRenown(name)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// DefaultRenownFractions は既定の分数除数列です。差分: 3, 8, 18, 37, 75, 150, 300, 600。
var DefaultRenownFractions = []int{3, 11, 29, 66, 141, 291, 591, 1191}

// RenownClassifier は、評価数を基準評価数に対する区分へ写像します。
//
// 基準評価数は固定の外部アンカー作品から起動時に一度だけ供給されます。
// アンカーを変えるとスケール全体が移動するため、値はピン留めして
// バージョン管理するべきであり、実行のたびに導出し直してはなりません。
type RenownClassifier struct {
	reference int
	fractions []int
}

// NewRenownClassifier は分類器を構築します。
// fractions は区分数より一つ少ない（8個の）狭義単調増加列でなければなりません。
func NewRenownClassifier(reference int, fractions ...int) (*RenownClassifier, error) {
	if len(fractions) == 0 {
		fractions = DefaultRenownFractions
	}
	if len(fractions) != len(renownNames)-1 {
		return nil, fmt.Errorf("分数列はちょうど %d 個でなければなりません: %d 個",
			len(renownNames)-1, len(fractions))
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] <= fractions[i-1] {
			return nil, fmt.Errorf("分数列は狭義単調増加でなければなりません: %v", fractions)
		}
	}
	if reference <= 0 {
		return nil, fmt.Errorf("基準評価数は正でなければなりません: %d", reference)
	}
	out := make([]int, len(fractions))
	copy(out, fractions)
	return &RenownClassifier{reference: reference, fractions: out}, nil
}

// Reference は基準評価数を返します。
func (c *RenownClassifier) Reference() int {
	return c.reference
}

// boundary は reference/fractions[i] を（浮動小数点演算の切り捨てで）計算します。
func (c *RenownClassifier) boundary(i int) int {
	return int(float64(c.reference) * 1 / float64(c.fractions[i]))
}

// Classify は評価数を知名度区分へ写像します。最上位境界は境界値を含みます。
func (c *RenownClassifier) Classify(ratings int) (Renown, error) {
	if ratings < 0 {
		return 0, fmt.Errorf("評価数が不正です: %d", ratings)
	}
	if ratings >= c.boundary(0) {
		return Superstar, nil
	}
	for i := 1; i < len(c.fractions); i++ {
		if ratings >= c.boundary(i) {
			// [reference/f(i+1), reference/f(i)) の半開区間
			return Superstar - Renown(i), nil
		}
	}
	return Obscure, nil
}
