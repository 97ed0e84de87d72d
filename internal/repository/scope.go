package repository

import (
	"context"
	"fmt"
)

// Scope restricts queries to rows owned by one restaurant. Every
// tenant-owned lookup goes through it so the ownership predicate is
// never written by hand.
type Scope struct {
	RestaurantID string
}

func ForRestaurant(restaurantID string) Scope {
	return Scope{RestaurantID: restaurantID}
}

// Apply appends the ownership predicate to a query that already has a
// WHERE clause, numbering the placeholder after args.
func (s Scope) Apply(query string, args ...interface{}) (string, []interface{}) {
	return s.ApplyAs("restaurant_id", query, args...)
}

// ApplyAs is Apply for a qualified or aliased column.
func (s Scope) ApplyAs(column, query string, args ...interface{}) (string, []interface{}) {
	args = append(args, s.RestaurantID)
	return fmt.Sprintf("%s AND %s = $%d", query, column, len(args)), args
}

func (s Scope) Valid() bool {
	return s.RestaurantID != ""
}

type scopeKey struct{}

// WithScope stores s on ctx. The auth middleware calls it once per request.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the scope set by WithScope.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	return s, ok && s.Valid()
}
