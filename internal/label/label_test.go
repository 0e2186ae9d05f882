package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text   string
		number int
		rest   string
		ok     bool
	}{
		{"Item 5 Initial Fees", 5, "Initial Fees", true},
		{"ITEM 12: TERRITORY", 12, "TERRITORY", true},
		{"Item XII - Territory", 12, "Territory", true},
		{"item iv. bankruptcy", 4, "bankruptcy", true},
		{"  Item   23  ", 23, "", true},
		{"Item 24 Extra", 24, "Extra", true},
		{"Item Litigation", 0, "", false},
		{"Item civil matters", 0, "", false},
		{"Territory", 0, "", false},
		{"See Item 5 for fees", 0, "", false},
		{"", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			l, ok := Parse(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.number, l.Number)
				assert.Equal(t, tt.rest, l.Rest)
			}
		})
	}
}

func TestStripLabel(t *testing.T) {
	assert.Equal(t, "Other Fees", StripLabel("Item 6: Other Fees"))
	assert.Equal(t, "Other Fees", StripLabel("  Other   Fees "))
}

func TestIsBareItemWord(t *testing.T) {
	assert.True(t, IsBareItemWord("Item"))
	assert.True(t, IsBareItemWord("ITEM:"))
	assert.True(t, IsBareItemWord(" item. "))
	assert.False(t, IsBareItemWord("Item 12"))
	assert.False(t, IsBareItemWord("Items"))
}

func TestLeadingNumber(t *testing.T) {
	n, rest, ok := LeadingNumber("12: Territory")
	require.True(t, ok)
	assert.Equal(t, 12, n)
	assert.Equal(t, "Territory", rest)

	n, rest, ok = LeadingNumber("XIV")
	require.True(t, ok)
	assert.Equal(t, 14, n)
	assert.Equal(t, "", rest)

	_, _, ok = LeadingNumber("Territory")
	assert.False(t, ok)
}

func TestParseRoman(t *testing.T) {
	valid := map[string]int{"i": 1, "IV": 4, "ix": 9, "XII": 12, "xix": 19, "XXIII": 23, "mcmxc": 1990}
	for s, want := range valid {
		got, ok := ParseRoman(s)
		assert.True(t, ok, s)
		assert.Equal(t, want, got, s)
	}

	for _, s := range []string{"", "iiii", "vx", "abc", "il", "civil"} {
		_, ok := ParseRoman(s)
		assert.False(t, ok, s)
	}
}

func TestParseExhibit(t *testing.T) {
	tests := []struct {
		text   string
		letter string
		title  string
		ok     bool
	}{
		{"EXHIBIT A", "A", "", true},
		{"Exhibit C-1 Franchise Agreement", "C-1", "Franchise Agreement", true},
		{"EXHIBIT B - Financial Statements", "B", "Financial Statements", true},
		{"Exhibit AA: State Addenda", "AA", "State Addenda", true},
		{"Exhibit to the agreement", "", "", false},
		{"See Exhibit A", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ex, ok := ParseExhibit(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.letter, ex.Letter)
			assert.Equal(t, tt.title, ex.Title)
		})
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"franchisees", "obligations"}, Tokens("Franchisee’s Obligations"))
	assert.Equal(t, []string{"restrictions", "sources", "products", "services"},
		Tokens("Restrictions on Sources of Products and Services"))
	assert.Empty(t, Tokens("and the"))
	assert.Equal(t, []string{"fees", "initial"}, TokenSet("INITIAL FEES initial"))
}

func TestNormalizeBlock(t *testing.T) {
	assert.Equal(t, "Item 1 The Franchisor\nItem 2 Business Experience",
		NormalizeBlock("  Item 1\tThe   Franchisor \r\n\n Item 2 Business Experience\n"))
	assert.Equal(t, "ITEM 5", NormalizeBlock("ＩＴＥＭ　5"))
	assert.Equal(t, "", NormalizeBlock(" \n\t\n"))
	assert.Equal(t, "a b c", Normalize("a\nb\r\nc"))
}
