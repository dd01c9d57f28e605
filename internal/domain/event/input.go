package event

import (
	"strings"
	"time"

	"eventplanner/internal/platform/apperr"
	"eventplanner/internal/platform/sanitize"
	"eventplanner/internal/platform/validate"
)

// Input is the writable part of an event, shared by create and update so both
// write paths enforce the same pricing rule.
type Input struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"required"`
	StartAt     *time.Time `json:"start_at" validate:"required"`
	EndAt       *time.Time `json:"end_at" validate:"required"`
	Place       string     `json:"place" validate:"required,max=255"`
	IsFree      *bool      `json:"is_free"`
	Price       *float64   `json:"price" validate:"omitempty,gte=0,lte=99999999.99"`
	CategoryID  int64      `json:"category_id" validate:"required,gt=0"`
	Capacity    int        `json:"capacity" validate:"min=1"`
}

// normalized is Input after sanitizing and resolving is_free/price.
type normalized struct {
	title       string
	description string
	place       string
	startAt     time.Time
	endAt       time.Time
	isFree      bool
	price       Price
	categoryID  int64
	capacity    int
}

// normalize sanitizes text fields and checks every rule that does not need
// storage. requireFuture is set on create only.
func (in Input) normalize(now time.Time, requireFuture bool) (normalized, apperr.FieldErrors) {
	in.Title = sanitize.Text(in.Title)
	in.Place = sanitize.Text(in.Place)
	in.Description = sanitize.HTML(in.Description)

	fields := validate.Struct(in)

	if in.StartAt != nil && requireFuture && !in.StartAt.After(now) {
		fields.Add("start_at", "must be in the future")
	}
	if in.StartAt != nil && in.EndAt != nil && !in.EndAt.After(*in.StartAt) {
		fields.Add("end_at", "must be after the start date")
	}

	isFree, price := resolvePricing(in.IsFree, in.Price, fields)

	n := normalized{
		title:       in.Title,
		description: in.Description,
		place:       in.Place,
		isFree:      isFree,
		price:       price,
		categoryID:  in.CategoryID,
		capacity:    in.Capacity,
	}
	if in.StartAt != nil {
		n.startAt = in.StartAt.UTC()
	}
	if in.EndAt != nil {
		n.endAt = in.EndAt.UTC()
	}
	return n, fields
}

// resolvePricing applies the is_free/price rule: an omitted is_free is derived
// from the price, a free event is stored with price 0, a paid one needs a
// positive price.
func resolvePricing(isFree *bool, price *float64, fields apperr.FieldErrors) (bool, Price) {
	free := false
	switch {
	case isFree != nil:
		free = *isFree
	case price == nil || PriceFromFloat(*price) == 0:
		free = true
	}

	if free {
		return true, 0
	}
	if price == nil {
		fields.Add("price", "is required for paid events")
		return false, 0
	}
	p := PriceFromFloat(*price)
	if p <= 0 {
		fields.Add("price", "must be greater than 0 for paid events, mark the event as free instead")
	}
	return false, p
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts an English day name in any case.
func ParseWeekday(s string) (time.Weekday, bool) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}
