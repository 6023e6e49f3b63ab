package http

import "github.com/go-chi/chi/v5"

// Console bundles the page handlers of the dashboard
type Console struct {
	Session    Session
	Auth       *AuthHandler
	Accounts   *AccountHandler
	Direct     *DirectHandler
	Automation *AutomationHandler
}

// RegisterRoutes registers every page. Form posts must come from the console
// itself; dashboard pages require a signed-in user.
func (c *Console) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(SameOrigin)

		c.Auth.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(c.Session))

			c.Accounts.RegisterRoutes(r)
			c.Direct.RegisterRoutes(r)
			c.Automation.RegisterRoutes(r)
		})
	})
}
