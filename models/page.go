package models

// Scope carries the shop and language every catalog read is bound to.
type Scope struct {
	ShopID     int64
	LanguageID int64
}

// PageRequest is a 1-based page of a fixed size.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PastEnd reports whether the page starts beyond the last of total
// records. It never computes the offset, so any page number is safe.
func (p PageRequest) PastEnd(total int64) bool {
	if p.Limit < 1 {
		return true
	}
	limit := int64(p.Limit)
	return int64(p.Page-1) >= (total+limit-1)/limit
}

func (p PageRequest) Validate() error {
	if p.Page < 1 {
		return &ValidationError{Field: "page", Message: "Invalid page parameter"}
	}
	if p.Limit < 1 {
		return &ValidationError{Field: "limit", Message: "Invalid limit parameter"}
	}
	return nil
}

// Record is one flat, search-engine-ready document.
type Record map[string]any

// Fields are extra attributes supplied for one entity by an extension hook.
type Fields map[string]any

// Merge copies fields into the record, overwriting existing keys.
func (r Record) Merge(fields Fields) {
	for k, v := range fields {
		r[k] = v
	}
}

// Envelope wraps one page of exported records.
type Envelope struct {
	Data       []Record `json:"data"`
	Total      int64    `json:"total"`
	Limit      int      `json:"limit"`
	Page       int      `json:"page"`
	TotalPages int64    `json:"totalPages"`
}

func NewEnvelope(data []Record, total int64, page PageRequest) *Envelope {
	if data == nil {
		data = []Record{}
	}
	var totalPages int64
	if page.Limit > 0 {
		limit := int64(page.Limit)
		totalPages = (total + limit - 1) / limit
	}
	return &Envelope{
		Data:       data,
		Total:      total,
		Limit:      page.Limit,
		Page:       page.Page,
		TotalPages: totalPages,
	}
}
