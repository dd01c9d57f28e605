// Package page carries offset pagination between handlers, services and
// repositories.
package page

const (
	PublicSize = 12
	AdminSize  = 20
)

// Request is a 1-based page number with a fixed size chosen by the caller.
type Request struct {
	Number int
	Size   int
}

func New(number, size int) Request {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = AdminSize
	}
	return Request{Number: number, Size: size}
}

func (r Request) Offset() int {
	return (r.Number - 1) * r.Size
}

func (r Request) Limit() int {
	return r.Size
}

type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

func Of[T any](items []T, req Request, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	last := 1
	if total > 0 && req.Size > 0 {
		last = (total + req.Size - 1) / req.Size
	}
	return Page[T]{
		Items:    items,
		Page:     req.Number,
		PerPage:  req.Size,
		Total:    total,
		LastPage: last,
	}
}
