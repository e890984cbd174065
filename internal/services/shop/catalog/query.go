package catalog

import (
	"errors"
	"maps"
	"strconv"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/filter"
	"github.com/louisbranch/storefront/internal/platform/pagination"
)

// FilterFields declares the identifiers accepted in public product filters.
var FilterFields = filter.Fields{
	"name":        {Column: "name", Type: filter.FieldString},
	"category":    {Column: "category", Type: filter.FieldString},
	"price_cents": {Column: "price_cents", Type: filter.FieldInt},
	"currency":    {Column: "currency", Type: filter.FieldString},
	"stock":       {Column: "stock", Type: filter.FieldInt},
	"created_at":  {Column: "created_at", Type: filter.FieldTimestamp},
}

// AdminFilterFields adds active to FilterFields for listings that include
// inactive products.
var AdminFilterFields = func() filter.Fields {
	fields := maps.Clone(FilterFields)
	fields["active"] = filter.Field{Column: "active", Type: filter.FieldBool}
	return fields
}()

// ListQuery is a validated product listing request.
type ListQuery struct {
	Where           filter.SQLCondition
	OrderBy         string
	PageSize        int
	Offset          int
	IncludeInactive bool
	// Token binds page tokens to this filter and ordering.
	Token string
}

// ListRequest carries raw listing parameters.
type ListRequest struct {
	Filter          string
	OrderBy         string
	PageSize        int
	PageToken       string
	IncludeInactive bool
}

// ParseListQuery validates listing parameters.
func ParseListQuery(req ListRequest) (ListQuery, error) {
	fields := FilterFields
	if req.IncludeInactive {
		fields = AdminFilterFields
	}
	where, err := filter.ToSQL(req.Filter, fields)
	if err != nil {
		return ListQuery{}, apperrors.Wrap(apperrors.CodeInvalidFilter, "invalid filter", err)
	}

	orderBy, err := pagination.NormalizeOrderBy(req.OrderBy, pagination.OrderByConfig{
		Default: DefaultOrderBy,
		Allowed: OrderByOptions,
	})
	if err != nil {
		return ListQuery{}, apperrors.WithMetadata(apperrors.CodeInvalidOrderBy, "invalid order_by", map[string]string{"OrderBy": req.OrderBy})
	}

	pageSize := pagination.ClampPageSize(req.PageSize, pagination.PageSizeConfig{Default: DefaultPageSize, Max: MaxPageSize})
	token := req.Filter + "|" + orderBy + "|" + strconv.FormatBool(req.IncludeInactive)
	cursor, err := pagination.DecodeToken(req.PageToken, token)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPageToken) {
			return ListQuery{}, apperrors.Wrap(apperrors.CodeInvalidPageToken, "invalid page token", err)
		}
		return ListQuery{}, err
	}

	return ListQuery{
		Where:           where,
		OrderBy:         orderBy,
		PageSize:        pageSize,
		Offset:          cursor.Offset,
		IncludeInactive: req.IncludeInactive,
		Token:           token,
	}, nil
}

// Page is one page of products.
type Page struct {
	Products      []Product
	NextPageToken string
}

// Page trims rows fetched for q (up to PageSize+1) to one page and issues the
// token for the next one.
func (q ListQuery) Page(fetched []Product) Page {
	next := pagination.NextToken(q.Offset, q.PageSize, len(fetched), q.Token)
	if len(fetched) > q.PageSize {
		fetched = fetched[:q.PageSize]
	}
	return Page{Products: fetched, NextPageToken: next}
}
