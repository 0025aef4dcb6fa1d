package page

// Document is the injected query capability over a rendered page. Production
// uses the goquery-backed implementation in this package; tests construct
// fakes with canned node trees.
type Document interface {
	// Select returns all nodes matching the CSS selector, in document order.
	Select(selector string) []Node
	// SelectFirst returns the first node matching the selector.
	SelectFirst(selector string) (Node, bool)
	// Title returns the page title text.
	Title() string
	// URL returns the address the document was loaded from.
	URL() string
	// HTML renders the current document, including any annotations written
	// since it was parsed.
	HTML() (string, error)
}

// Node is a single element within a Document.
type Node interface {
	Text() string
	Parent() (Node, bool)
	Select(selector string) []Node
	SelectFirst(selector string) (Node, bool)
	// AppendHTML inserts markup as the node's last child.
	AppendHTML(markup string)
}

// Selectors carries the site selector strings. These are configuration, not
// logic: the extraction code only ever treats them as opaque keys into the
// document capability.
type Selectors struct {
	Comment            string
	CommentList        string
	CensoredUsername   string
	UncensoredUsername string
	Timestamp          string
	StarRating         string
	SolidStar          string
	PaginationButton   string
	PaginationActive   string
}

// DefaultSelectors returns the selector set for the currently supported
// storefront markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Comment:            "div.YNedDV",
		CommentList:        ".shopee-product-comment-list",
		CensoredUsername:   "div.InK5kS",
		UncensoredUsername: "a.InK5kS",
		Timestamp:          "div.XYk98l",
		StarRating:         "div.rGdC5O",
		SolidStar:          ".icon-rating-solid",
		PaginationButton:   ".shopee-icon-button--right",
		PaginationActive:   ".shopee-page-controller > .shopee-button-solid--primary",
	}
}
