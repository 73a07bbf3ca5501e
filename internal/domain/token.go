package domain

// Token is one lexical unit extracted from a page: its rectangle in logical
// page units and its text.
type Token struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text"`
}

// Bounds returns the token rectangle.
func (t Token) Bounds() Bounds {
	return Bounds{
		Left:   t.X,
		Top:    t.Y,
		Right:  t.X + t.Width,
		Bottom: t.Y + t.Height,
	}
}

// TokenID references a token by position in a page's token list. It is only
// meaningful while the document's token index is unchanged.
type TokenID struct {
	PageIndex  int `json:"pageIndex"`
	TokenIndex int `json:"tokenIndex"`
}

// PageTokens is the token list of one page together with its intrinsic size.
type PageTokens struct {
	Index  int     `json:"index"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Tokens []Token `json:"tokens"`
}

// PagesTokens is the token payload for a whole document.
type PagesTokens struct {
	Pages []PageTokens `json:"pages"`
}
