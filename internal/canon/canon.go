// Package canon holds the fixed FDD reference structure: the 23 numbered Items
// with their canonical titles and distinguishing keyword phrases.
package canon

// ItemCount is the number of Items in every FDD
const ItemCount = 23

// Item is one canonical FDD section
type Item struct {
	Number   int      `json:"number"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
}

var items = [ItemCount]Item{
	{1, "The Franchisor and any Parents, Predecessors, and Affiliates", []string{"franchisor", "parents predecessors affiliates", "the franchisor"}},
	{2, "Business Experience", []string{"business experience", "directors officers"}},
	{3, "Litigation", []string{"litigation", "pending actions"}},
	{4, "Bankruptcy", []string{"bankruptcy"}},
	{5, "Initial Fees", []string{"initial fees", "initial franchise fee"}},
	{6, "Other Fees", []string{"other fees", "royalty fee"}},
	{7, "Estimated Initial Investment", []string{"estimated initial investment", "initial investment"}},
	{8, "Restrictions on Sources of Products and Services", []string{"restrictions on sources", "sources of products and services"}},
	{9, "Franchisee's Obligations", []string{"franchisee's obligations", "franchisee obligations"}},
	{10, "Financing", []string{"financing"}},
	{11, "Franchisor's Assistance, Advertising, Computer Systems, and Training", []string{"franchisor's assistance", "advertising", "computer systems", "training"}},
	{12, "Territory", []string{"territory", "exclusive territory"}},
	{13, "Trademarks", []string{"trademarks", "principal trademarks"}},
	{14, "Patents, Copyrights, and Proprietary Information", []string{"patents", "copyrights", "proprietary information"}},
	{15, "Obligation to Participate in the Actual Operation of the Franchise Business", []string{"obligation to participate", "actual operation"}},
	{16, "Restrictions on What the Franchisee May Sell", []string{"restrictions on what the franchisee may sell", "may sell"}},
	{17, "Renewal, Termination, Transfer, and Dispute Resolution", []string{"renewal termination transfer", "dispute resolution"}},
	{18, "Public Figures", []string{"public figures"}},
	{19, "Financial Performance Representations", []string{"financial performance representations", "earnings claims"}},
	{20, "Outlets and Franchisee Information", []string{"outlets and franchisee information", "outlets"}},
	{21, "Financial Statements", []string{"financial statements", "audited financial statements"}},
	{22, "Contracts", []string{"contracts", "agreements"}},
	{23, "Receipts", []string{"receipts", "receipt"}},
}

// Items returns the canonical set ordered by item number.
// The returned slice is a copy; the reference table itself never changes.
func Items() []Item {
	out := make([]Item, ItemCount)
	copy(out, items[:])
	return out
}

// Lookup returns the canonical item with the given number
func Lookup(number int) (Item, bool) {
	if !Valid(number) {
		return Item{}, false
	}
	return items[number-1], true
}

// Title returns the canonical title for an item number, or "" when out of range
func Title(number int) string {
	item, ok := Lookup(number)
	if !ok {
		return ""
	}
	return item.Title
}

// Valid reports whether number is a canonical item number
func Valid(number int) bool {
	return number >= 1 && number <= ItemCount
}
