package unit

import (
	"fmt"
	"time"
)

// ItemType identifies one sellable variant of a unit: note or assignment,
// in Sinhala or English medium.
type ItemType string

const (
	SinhalaNote       ItemType = "sinhalaNote"
	SinhalaAssignment ItemType = "sinhalaAssignment"
	EnglishNote       ItemType = "englishNote"
	EnglishAssignment ItemType = "englishAssignment"
)

func (t ItemType) Valid() bool {
	switch t {
	case SinhalaNote, SinhalaAssignment, EnglishNote, EnglishAssignment:
		return true
	}
	return false
}

func (t ItemType) Label() string {
	switch t {
	case SinhalaNote:
		return "Sinhala Note"
	case SinhalaAssignment:
		return "Sinhala Assignment"
	case EnglishNote:
		return "English Note"
	case EnglishAssignment:
		return "English Assignment"
	}
	return string(t)
}

type Unit struct {
	ID                     string    `json:"id" db:"unit_id"`
	Code                   string    `json:"code" db:"code"`
	Title                  string    `json:"title" db:"title"`
	SinhalaTitle           string    `json:"sinhalaTitle" db:"sinhala_title"`
	Category               string    `json:"category" db:"category"`
	PriceSinhalaNote       int       `json:"priceSinhalaNote" db:"price_sinhala_note"`
	PriceSinhalaAssignment int       `json:"priceSinhalaAssignment" db:"price_sinhala_assignment"`
	PriceEnglishNote       int       `json:"priceEnglishNote" db:"price_english_note"`
	PriceEnglishAssignment int       `json:"priceEnglishAssignment" db:"price_english_assignment"`
	CreatedAt              time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time `json:"updatedAt" db:"updated_at"`
	Version                int       `json:"-" db:"version"`
}

// Price returns the live catalog price of one variant. Orders snapshot
// this value onto their line items; later unit edits never change a
// past receipt.
func (u Unit) Price(t ItemType) int {
	switch t {
	case SinhalaNote:
		return u.PriceSinhalaNote
	case SinhalaAssignment:
		return u.PriceSinhalaAssignment
	case EnglishNote:
		return u.PriceEnglishNote
	case EnglishAssignment:
		return u.PriceEnglishAssignment
	}
	return 0
}

func (u Unit) ItemName(t ItemType) string {
	return fmt.Sprintf("%s %s", u.Code, t.Label())
}

type UnitNew struct {
	Code                   string `json:"code" validate:"required"`
	Title                  string `json:"title" validate:"required"`
	SinhalaTitle           string `json:"sinhalaTitle" validate:"required"`
	Category               string `json:"category" validate:"required"`
	PriceSinhalaNote       int    `json:"priceSinhalaNote" validate:"gte=0,lte=100000"`
	PriceSinhalaAssignment int    `json:"priceSinhalaAssignment" validate:"gte=0,lte=100000"`
	PriceEnglishNote       int    `json:"priceEnglishNote" validate:"gte=0,lte=100000"`
	PriceEnglishAssignment int    `json:"priceEnglishAssignment" validate:"gte=0,lte=100000"`
}

type UnitUp struct {
	Code                   *string `json:"code"`
	Title                  *string `json:"title"`
	SinhalaTitle           *string `json:"sinhalaTitle"`
	Category               *string `json:"category"`
	PriceSinhalaNote       *int    `json:"priceSinhalaNote" validate:"omitempty,gte=0,lte=100000"`
	PriceSinhalaAssignment *int    `json:"priceSinhalaAssignment" validate:"omitempty,gte=0,lte=100000"`
	PriceEnglishNote       *int    `json:"priceEnglishNote" validate:"omitempty,gte=0,lte=100000"`
	PriceEnglishAssignment *int    `json:"priceEnglishAssignment" validate:"omitempty,gte=0,lte=100000"`
}
