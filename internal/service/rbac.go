package service

// RBACService decides role-gated authorization. It is stateless; callers
// evaluate it before any side effect of a protected operation runs.
type RBACService struct{}

func NewRBACService() *RBACService { return &RBACService{} }

// Authorize allows when any presented role is in the required set. Required
// roles are disjunctive: an operation gated on {ADMIN, USER} admits either.
func (s *RBACService) Authorize(presented, required []string) bool {
	if len(required) == 0 {
		return false
	}
	for _, have := range presented {
		for _, want := range required {
			if have == want {
				return true
			}
		}
	}
	return false
}
