package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidID(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		valid bool
	}{
		{"ドット区切り", "625094.The_Leopard", true},
		{"ハイフン区切り", "9969571-ready-player-one", true},
		{"数字のみ", "40982390", true},
		{"アポストロフィを含む名前由来のID", "106.Madeleine_L_Engle", true},
		{"空文字列", "", false},
		{"区切りなしの英字", "HarlanEllison", false},
		{"ドットとハイフンの混在", "7415.Harlan-Ellison", false},
		{"数値部分が英字", "abc.def", false},
		{"非ASCIIのスラグ", "554577.Ewa_Białołęcka", false},
		{"短すぎる", "a.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidID(tt.text))
		})
	}
}

func TestNumericID(t *testing.T) {
	id, err := NumericID("625094.The_Leopard")
	require.NoError(t, err)
	assert.Equal(t, 625094, id)

	id, err = NumericID("40982390")
	require.NoError(t, err)
	assert.Equal(t, 40982390, id)

	_, err = NumericID("no_digits_here")
	assert.Error(t, err)
}

func TestURLToID(t *testing.T) {
	assert.Equal(t, "7415.Harlan_Ellison",
		URLToID("https://www.goodreads.com/author/show/7415.Harlan_Ellison"))
	assert.Equal(t, "9969571-ready-player-one",
		URLToID("/book/show/9969571-ready-player-one"))
	assert.Equal(t, "", URLToID("7415.Harlan_Ellison"))
	assert.Equal(t, "", URLToID("https://www.goodreads.com/about"))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Orson Scott Card", "Orson_Scott_Card"},
		{"Madeleine L'Engle", "Madeleine_L_Engle"},
		{"Chi Ta-wei", "Chi_Ta_wei"},
		{"George R.R. Martin", "George_R_R_Martin"},
		{"Stanisław Lem", "Stanis_aw_Lem"},
		{"Ewa Białołęcka", "Ewa_Bia_o_cka"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.name), tt.name)
	}
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Ender's Game", SanitizeText("  Ender’s   Game  "))
	assert.Equal(t, "A B C", SanitizeText("A\n B\t\tC"))
}
