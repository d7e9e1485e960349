package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Pagination carries the normalized page window of a list request.
type Pagination struct {
	Page    int
	PerPage int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ParsePagination reads page/per_page query params and clamps them to
// page >= 1 and per_page in [1,100].
func ParsePagination(c *fiber.Ctx) Pagination {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", strconv.Itoa(DefaultPerPage)))
	return ClampPagination(page, perPage)
}

// ClampPagination normalizes raw page values.
func ClampPagination(page, perPage int) Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

// ListEnvelope is the common shape of every list response.
type ListEnvelope struct {
	Count       int64       `json:"count"`
	TotalPages  int         `json:"total_pages"`
	CurrentPage int         `json:"current_page"`
	PerPage     int         `json:"per_page"`
	Results     interface{} `json:"results"`
}

// NewListEnvelope builds the list response envelope.
func NewListEnvelope(p Pagination, total int64, results interface{}) ListEnvelope {
	totalPages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	return ListEnvelope{
		Count:       total,
		TotalPages:  totalPages,
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		Results:     results,
	}
}
