package util

import (
	"errors"
	"math"
	"strconv"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

var ErrInvalidPage = errors.New("invalid page")

type Page struct {
	Number int
	Size   int
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// ParsePage reads the page and page_size query values. A malformed,
// non-positive or unreachably large page is an error; a bad page_size falls
// back to def.
func ParsePage(pageParam, sizeParam string, def, max int) (Page, error) {
	if def < 1 {
		def = DefaultPageSize
	}
	if max < def {
		max = def
	}

	size := ParseIntDefault(sizeParam, def)
	if size < 1 {
		size = def
	}
	if size > max {
		size = max
	}

	number := 1
	if pageParam != "" {
		n, err := strconv.Atoi(pageParam)
		if err != nil || n < 1 {
			return Page{}, ErrInvalidPage
		}
		// the offset of the last row must fit in an int
		if n-1 > (math.MaxInt-size)/size {
			return Page{}, ErrInvalidPage
		}
		number = n
	}
	return Page{Number: number, Size: size}, nil
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}

// InRange reports whether the page exists for total rows. The first page
// always exists, even when empty.
func (p Page) InRange(total int64) bool {
	return p.Number == 1 || int64(p.Offset()) < total
}

func (p Page) HasNext(total int64) bool {
	return int64(p.Offset()+p.Size) < total
}

func (p Page) HasPrev() bool {
	return p.Number > 1
}
