// Package view renders product load states as HTML.
package view

import (
	"embed"
	"html/template"
	"io"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/xenking/product-showcase/internal/domain/loadstate"
	"github.com/xenking/product-showcase/internal/domain/product"
)

// Panel headings for failed loads.
const (
	ErrorHeadingProduct  = "Error Loading Product"
	ErrorHeadingProducts = "Error Loading Products"
)

// DefaultPlaceholderPath is where the fallback image is served.
const DefaultPlaceholderPath = "/placeholder.svg"

var (
	//go:embed templates/*.html
	templatesFS embed.FS

	//go:embed static/style.css
	styleCSS string

	//go:embed static/placeholder.svg
	placeholderSVG []byte
)

// PlaceholderSVG returns the fallback image.
func PlaceholderSVG() []byte {
	return placeholderSVG
}

// Page describes the document around a view.
type Page struct {
	Title      string
	Heading    string
	Subheading string
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl     *template.Template
	fallback template.JS
}

// New parses the templates. Broken images are swapped for placeholderPath.
func New(placeholderPath string) (*Renderer, error) {
	if placeholderPath == "" {
		placeholderPath = DefaultPlaceholderPath
	}
	r := &Renderer{
		// The handler clears itself so a broken placeholder cannot loop.
		fallback: template.JS("this.onerror=null;this.src='" + template.JSEscapeString(placeholderPath) + "'"),
	}
	tmpl, err := template.New("view").Funcs(template.FuncMap{
		"style":    func() template.CSS { return template.CSS(styleCSS) },
		"fallback": func() template.JS { return r.fallback },
		"card":     newCardView,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	r.tmpl = tmpl
	return r, nil
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return errors.Wrapf(err, "render %s", name)
	}
	return nil
}

// Head writes the document start.
func (r *Renderer) Head(w io.Writer, p Page) error {
	return r.execute(w, "head", p)
}

// Foot closes the document.
func (r *Renderer) Foot(w io.Writer) error {
	return r.execute(w, "foot", nil)
}

// Pending writes body wrapped in a block that Settled hides later.
func (r *Renderer) Pending(w io.Writer, body func(io.Writer) error) error {
	if err := r.execute(w, "pending-start", nil); err != nil {
		return err
	}
	if err := body(w); err != nil {
		return err
	}
	return r.execute(w, "pending-end", nil)
}

// Settled hides anything written by Pending.
func (r *Renderer) Settled(w io.Writer) error {
	return r.execute(w, "settled", nil)
}

type errorPanel struct {
	Heading  string
	Message  string
	Centered bool
}

// Error writes an error panel.
func (r *Renderer) Error(w io.Writer, heading, message string) error {
	return r.execute(w, "error-panel", errorPanel{Heading: heading, Message: message})
}

// DetailSkeleton writes the loading placeholder of the detail view.
func (r *Renderer) DetailSkeleton(w io.Writer) error {
	return r.execute(w, "detail-skeleton", nil)
}

// Detail writes the panel for a detail load state.
func (r *Renderer) Detail(w io.Writer, s loadstate.State[*product.Record]) error {
	switch s.Kind() {
	case loadstate.Failed:
		msg, _ := s.Message()
		return r.Error(w, ErrorHeadingProduct, msg)
	case loadstate.Loaded:
		v, _ := s.Value()
		if v == nil {
			return r.execute(w, "not-found", nil)
		}
		return r.execute(w, "detail", newProductView(*v))
	default:
		return r.DetailSkeleton(w)
	}
}

// CollectionSkeleton writes limit placeholder cards.
func (r *Renderer) CollectionSkeleton(w io.Writer, limit int) error {
	return r.execute(w, "collection-skeleton", make([]struct{}, max(limit, 0)))
}

// CollectionOptions parameterizes the collection view.
type CollectionOptions struct {
	// Limit sizes the skeleton grid.
	Limit int
	// ReturnTo is where card selection redirects back to.
	ReturnTo string
}

type collectionView struct {
	Products []product.Record
	ReturnTo string
}

// Collection writes the panel for a collection load state.
func (r *Renderer) Collection(w io.Writer, s loadstate.State[[]product.Record], opts CollectionOptions) error {
	switch s.Kind() {
	case loadstate.Failed:
		msg, _ := s.Message()
		return r.execute(w, "error-panel", errorPanel{
			Heading:  ErrorHeadingProducts,
			Message:  msg,
			Centered: true,
		})
	case loadstate.Loaded:
		v, _ := s.Value()
		if len(v) == 0 {
			return r.execute(w, "empty", nil)
		}
		return r.execute(w, "collection", collectionView{Products: v, ReturnTo: opts.ReturnTo})
	default:
		return r.CollectionSkeleton(w, opts.Limit)
	}
}

type galleryImage struct {
	Src string
	Alt string
}

// productView holds the display strings of one record.
type productView struct {
	ID            int
	Title         string
	Description   string
	Category      string
	Brand         string
	Thumbnail     string
	Gallery       []galleryImage
	Rating        string
	Price         string
	OriginalPrice string
	Discount      string
	Stock         string
	InStock       bool
}

func newProductView(p product.Record) productView {
	v := productView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		Thumbnail:   p.Thumbnail,
		Rating:      p.Rating.String(),
		Price:       FormatPrice(p.Price),
		Discount:    p.DiscountLabel(),
		Stock:       p.StockLabel(),
		InStock:     p.InStock(),
	}
	if orig, ok := p.OriginalPrice(); ok {
		v.OriginalPrice = FormatPrice(orig)
	}
	for i, img := range p.Gallery() {
		v.Gallery = append(v.Gallery, galleryImage{
			Src: img,
			Alt: p.Title + " view " + strconv.Itoa(i+1),
		})
	}
	return v
}

type cardView struct {
	Product  productView
	ReturnTo string
}

func newCardView(p product.Record, returnTo string) cardView {
	return cardView{Product: newProductView(p), ReturnTo: returnTo}
}
