// Package traffic generates synthetic storefront shoppers and their
// conversion events for exercising a dispatcher end to end.
package traffic

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/trickstertwo/xtrack"
)

const DefaultSiteURL = "https://shop.example"

type Product struct {
	ID    string
	Name  string
	Price float64
}

// Catalog is the fixed demo catalog.
var Catalog = []Product{
	{ID: "1", Name: "Wireless Headphones", Price: 79.99},
	{ID: "2", Name: "Minimalist Watch", Price: 149.99},
	{ID: "3", Name: "Running Sneakers", Price: 119.99},
	{ID: "4", Name: "Leather Backpack", Price: 89.99},
	{ID: "5", Name: "Ceramic Mug Set", Price: 34.99},
	{ID: "6", Name: "Desk Lamp", Price: 59.99},
}

// Shopper is one fake visitor.
type Shopper struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	UserAgent string
	IP        string
}

// Journey is one visit: a landing URL carrying click identifiers, and the
// events the visitor triggers afterwards, in order.
type Journey struct {
	Shopper    Shopper
	LandingURL string
	Requests   []xtrack.Request
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator is deterministic for a given seed.
type Generator struct {
	faker   *gofakeit.Faker
	siteURL string
}

func NewGenerator(seed int64, siteURL string) *Generator {
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	return &Generator{faker: gofakeit.New(seed), siteURL: strings.TrimRight(siteURL, "/")}
}

func (g *Generator) Shopper() Shopper {
	first, last := g.faker.FirstName(), g.faker.LastName()
	return Shopper{
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(fmt.Sprintf("%s.%s@example.com", first, last)),
		Phone:     g.faker.Phone(),
		UserAgent: g.faker.UserAgent(),
		IP:        g.faker.IPv4Address(),
	}
}

// FBCLID returns a Meta click identifier: 62 alphanumeric characters.
func (g *Generator) FBCLID() string { return g.alnum(62) }

// TTCLID returns a TikTok click identifier: 26 alphanumeric characters.
func (g *Generator) TTCLID() string { return g.alnum(26) }

// RDTCID returns a Reddit click identifier: a 19-digit number.
func (g *Generator) RDTCID() string {
	return fmt.Sprintf("%d%s", g.faker.Number(1, 9), g.faker.Numerify(strings.Repeat("#", 18)))
}

func (g *Generator) alnum(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphanumeric[g.faker.Number(0, len(alphanumeric)-1)])
	}
	return b.String()
}

// LandingURL is the site root with all three click identifiers attached.
func (g *Generator) LandingURL() string {
	q := url.Values{}
	q.Set(string(xtrack.FBCLID), g.FBCLID())
	q.Set(string(xtrack.TTCLID), g.TTCLID())
	q.Set(string(xtrack.RDTCID), g.RDTCID())
	return g.siteURL + "/?" + q.Encode()
}

// EventName picks ViewContent, AddToCart or Purchase weighted 50/30/20.
func (g *Generator) EventName() xtrack.EventName {
	switch n := g.faker.Number(1, 100); {
	case n <= 50:
		return xtrack.ViewContent
	case n <= 80:
		return xtrack.AddToCart
	default:
		return xtrack.Purchase
	}
}

// Products picks one to three distinct catalog entries.
func (g *Generator) Products() []Product {
	count := g.faker.Number(1, 3)
	idx := make([]int, len(Catalog))
	for i := range idx {
		idx[i] = i
	}
	// partial Fisher-Yates
	out := make([]Product, 0, count)
	for i := 0; i < count; i++ {
		j := g.faker.Number(i, len(idx)-1)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, Catalog[idx[i]])
	}
	return out
}

// SourceURL is the page an event of that kind fires on.
func (g *Generator) SourceURL(name xtrack.EventName) string {
	switch name {
	case xtrack.AddToCart:
		if g.faker.Number(0, 1) == 0 {
			return g.siteURL + "/"
		}
		return g.siteURL + "/cart"
	case xtrack.Purchase, xtrack.Lead:
		return g.siteURL + "/payment"
	default:
		return g.siteURL + "/"
	}
}

// Request builds the dispatch request a storefront would send for s.
func (g *Generator) Request(name xtrack.EventName, s Shopper, products []Product) xtrack.Request {
	ids := make([]string, len(products))
	names := make([]string, len(products))
	var total float64
	for i, p := range products {
		ids[i] = p.ID
		names[i] = p.Name
		total += p.Price
	}

	return xtrack.Request{
		EventName: name,
		SourceURL: g.SourceURL(name),
		UserData: xtrack.UserData{
			xtrack.FieldEmail:     s.Email,
			xtrack.FieldPhone:     s.Phone,
			xtrack.FieldFirstName: strings.ToLower(s.FirstName),
			xtrack.FieldLastName:  strings.ToLower(s.LastName),
		},
		CustomData: xtrack.CustomData{
			xtrack.KeyContentType:  xtrack.DefaultContentType,
			xtrack.KeyContentIDs:   ids,
			xtrack.KeyContentNames: names,
			xtrack.KeyCurrency:     "USD",
			xtrack.KeyValue:        math.Round(total*100) / 100,
		},
	}
}

// Journey builds one visit. A journey always starts with ViewContent and
// ends with the weighted pick, following the funnel up to it.
func (g *Generator) Journey() Journey {
	s := g.Shopper()
	products := g.Products()
	target := g.EventName()

	funnel := []xtrack.EventName{xtrack.ViewContent}
	switch target {
	case xtrack.AddToCart:
		funnel = append(funnel, xtrack.AddToCart)
	case xtrack.Purchase:
		funnel = append(funnel, xtrack.AddToCart, xtrack.Purchase)
	}

	reqs := make([]xtrack.Request, len(funnel))
	for i, name := range funnel {
		reqs[i] = g.Request(name, s, products)
	}
	return Journey{Shopper: s, LandingURL: g.LandingURL(), Requests: reqs}
}
