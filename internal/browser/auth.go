package browser

import (
	"context"
	"fmt"
	"strings"

	"subseek/internal/services"
)

// Token is applied by writing the web app's access token key into
// localStorage and reloading, the same mechanism the web client itself uses.
const accessTokenKey = "myPlexAccessToken"

// Authenticate navigates the session to the server's web app, injects the
// access token, reloads, and runs confirmLogin to establish that the
// authenticated UI actually rendered. confirmLogin should resolve a
// post-login marker element within its own bounded wait; its failure is
// reported as an authentication error.
func Authenticate(ctx context.Context, sess Session, serverURL, token string, confirmLogin func(context.Context, Session) error) error {
	webURL := strings.TrimRight(serverURL, "/") + "/web/index.html"

	if err := sess.Navigate(ctx, webURL); err != nil {
		return services.Wrap(services.ErrAuthentication, "browser", "open web app", webURL, err)
	}
	expr := fmt.Sprintf("localStorage.setItem(%q, %q)", accessTokenKey, token)
	if err := sess.Evaluate(ctx, expr); err != nil {
		return services.Wrap(services.ErrAuthentication, "browser", "inject token", "", err)
	}
	if err := sess.Reload(ctx); err != nil {
		return services.Wrap(services.ErrAuthentication, "browser", "reload after token", "", err)
	}
	if confirmLogin != nil {
		if err := confirmLogin(ctx, sess); err != nil {
			return services.Wrap(services.ErrAuthentication, "browser", "confirm login",
				"post-login marker did not appear", err)
		}
	}
	return nil
}
