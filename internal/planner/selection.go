package planner

import "vorp/internal/model"

// Selection tracks the highlighted route id. It holds at most one id and a
// stale id resolves to none.
type Selection struct {
	id  string
	set bool
}

func (s *Selection) Select(id string) { s.id, s.set = id, true }

func (s *Selection) Clear() { s.id, s.set = "", false }

// Current returns the selected id if it names a route in routes.
func (s *Selection) Current(routes model.RouteSet) (string, bool) {
	if !s.set || !routes.Has(s.id) {
		return "", false
	}
	return s.id, true
}
