package dummyjson

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/product-showcase/internal/domain/product"
)

// decodeRecord reads a product object. A JSON null yields a nil record.
func decodeRecord(d *jx.Decoder) (*product.Record, error) {
	if d.Next() == jx.Null {
		if err := d.Null(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	var r product.Record
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			r.ID, err = d.Int()
		case "title":
			r.Title, err = optString(d)
		case "description":
			r.Description, err = optString(d)
		case "category":
			r.Category, err = optString(d)
		case "brand":
			r.Brand, err = optString(d)
		case "price":
			r.Price, err = decodeDecimal(d)
		case "discountPercentage":
			r.DiscountPercentage, err = decodeDecimal(d)
		case "rating":
			r.Rating, err = decodeDecimal(d)
		case "stock":
			r.Stock, err = d.Int()
		case "thumbnail":
			r.Thumbnail, err = optString(d)
		case "images":
			r.Images, err = decodeStrings(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &r, nil
}

// decodePage reads the listing envelope.
func decodePage(d *jx.Decoder) (*product.Page, error) {
	var p product.Page
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "products":
			p.Products = make([]product.Record, 0)
			err = d.Arr(func(d *jx.Decoder) error {
				r, err := decodeRecord(d)
				if err != nil {
					return err
				}
				if r != nil {
					p.Products = append(p.Products, *r)
				}
				return nil
			})
		case "total":
			p.Total, err = d.Int()
		case "skip":
			p.Skip, err = d.Int()
		case "limit":
			p.Limit, err = d.Int()
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &p, nil
}

// decodeDecimal parses a JSON number without going through float64.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.Null {
		return decimal.Zero, d.Null()
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}

func optString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	out := make([]string, 0)
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
