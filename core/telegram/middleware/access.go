package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	// AdminIDs is the privileged user set; an empty set grants nobody.
	AdminIDs map[int64]struct{}
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether userID belongs to the privileged set.
func (o AdminOptions) IsAdmin(userID int64) bool {
	_, ok := o.AdminIDs[userID]
	return ok
}

// Allowed reports whether the sender of c is privileged.
func (o AdminOptions) Allowed(c tele.Context) bool {
	u := c.Sender()
	return u != nil && o.IsAdmin(u.ID)
}

// WithAdminCheck wraps h so that it only runs for privileged senders when adminOnly is set.
func WithAdminCheck(opts AdminOptions, adminOnly bool, h tele.HandlerFunc) tele.HandlerFunc {
	if !adminOnly {
		return h
	}
	return AdminOnlyMiddleware(opts)(h)
}

// AdminOnlyMiddleware ensures that only privileged users can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !opts.Allowed(c) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
