package dto

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	HasNext       bool  `json:"hasNext"`
	HasPrevious   bool  `json:"hasPrevious"`
}

// PaginatedResponse - единый конверт для постраничных списков
type PaginatedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// PageRequest - страница, запрошенная клиентом. Page начинается с 1.
type PageRequest struct {
	Page int
	Size int
}

// Normalize приводит запрос к page >= 1 и size в [1, MaxPageSize]; нулевой size - размер по умолчанию
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	p.Size = normalizeSize(p.Size)
	return p
}

func normalizeSize(size int) int {
	switch {
	case size < 1:
		return DefaultPageSize
	case size > MaxPageSize:
		return MaxPageSize
	}
	return size
}

// Offset возвращает смещение для источника данных, который считает страницы с 0
func (p PageRequest) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Size
}

// Index0 - номер страницы для источника с нумерацией от 0
func (p PageRequest) Index0() int {
	return p.Normalize().Page - 1
}

// PageOf собирает ответ из страницы источника с нумерацией от 0.
// currentPage всегда 1-based; при total == 0 totalPages == 0 и соседних страниц нет.
// Отрицательный page0 считается первой страницей, size нормализуется как в PageRequest.
func PageOf[T any](page0, pageSize int, total int64, content []T) PaginatedResponse[T] {
	if content == nil {
		content = []T{}
	}
	if page0 < 0 {
		page0 = 0
	}
	if total < 0 {
		total = 0
	}
	pageSize = normalizeSize(pageSize)

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	currentPage := page0 + 1

	return PaginatedResponse[T]{
		Data: content,
		Pagination: Pagination{
			CurrentPage:   currentPage,
			TotalPages:    totalPages,
			PageSize:      pageSize,
			TotalElements: total,
			HasNext:       currentPage < totalPages,
			HasPrevious:   currentPage > 1 && totalPages > 0,
		},
	}
}

// PageSlice режет уже посчитанный в памяти список на страницу
func PageSlice[T any](req PageRequest, items []T) PaginatedResponse[T] {
	req = req.Normalize()
	total := len(items)
	from := req.Offset()
	if from > total {
		from = total
	}
	to := from + req.Size
	if to > total {
		to = total
	}
	return PageOf(req.Index0(), req.Size, int64(total), items[from:to])
}
