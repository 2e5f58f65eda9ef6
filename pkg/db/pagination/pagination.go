package pagination

// Pagination carries the limit/offset parameters shared by list endpoints.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Normalize clamps user-supplied limit/offset to sane bounds.
func Normalize(limit, offset int) Pagination {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}
