package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mediocregopher/radix/v3"
	"github.com/senticord/senticord/common"
	"goji.io/pat"
	"golang.org/x/oauth2"
)

// RequestLogger writes one line per request to the provided writer
func RequestLogger(destination io.Writer) func(http.Handler) http.Handler {
	handler := func(inner http.Handler) http.Handler {
		mw := func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			inner.ServeHTTP(w, r)

			elapsed := time.Since(started)
			out := fmt.Sprintf("%s %f - [%s] %q %s\n", r.RemoteAddr, elapsed.Seconds(), started.Format(time.RFC1123), fmt.Sprintf("%s %s %s", r.Method, r.URL.String(), r.Proto), r.UserAgent())

			_, err := destination.Write([]byte(out))
			if err != nil {
				logger.WithError(err).Error("failed writing to access log")
			}
		}

		return http.HandlerFunc(mw)
	}

	return handler
}

// MiscMiddleware adds general headers
func MiscMiddleware(inner http.Handler) http.Handler {
	mw := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		inner.ServeHTTP(w, r)
	}

	return http.HandlerFunc(mw)
}

// BaseTemplateDataMiddleware adds the base template data to the request
// context
func BaseTemplateDataMiddleware(inner http.Handler) http.Handler {
	mw := func(w http.ResponseWriter, r *http.Request) {
		baseData := TemplateData{
			"BotName":  "Senticord",
			"Version":  common.VERSION,
			"ClientID": common.ConfClientID.GetString(),
			"Host":     common.ConfHost.GetString(),
		}

		inner.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyTemplateData, baseData)))
	}

	return http.HandlerFunc(mw)
}

// SessionMiddleware fills the context with the oauth token of the session
// cookie, if the session is valid
func SessionMiddleware(inner http.Handler) http.Handler {
	mw := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			inner.ServeHTTP(w, r)
		}()

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			// No session
			return
		}

		token, err := GetAuthToken(cookie.Value)
		if err != nil {
			if err != errNotLoggedIn {
				logger.WithError(err).Error("failed retrieving session token")
			}
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), ContextKeyToken, token))
	}

	return http.HandlerFunc(mw)
}

// UserInfoMiddleware fills the context and template data with the current
// user, if logged in
func UserInfoMiddleware(inner http.Handler) http.Handler {
	mw := func(w http.ResponseWriter, r *http.Request) {
		token := ContextToken(r.Context())
		if token == nil {
			inner.ServeHTTP(w, r)
			return
		}

		session, err := bearerSession(token)
		if err != nil {
			logger.WithError(err).Error("failed creating bearer discord session")
			inner.ServeHTTP(w, r)
			return
		}

		user, err := session.User("@me")
		if err != nil {
			logger.WithError(err).Error("failed fetching user info")
			inner.ServeHTTP(w, r)
			return
		}

		templateData := GetTemplateData(r.Context())
		templateData["User"] = user
		templateData["LoggedIn"] = true

		inner.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user)))
	}

	return http.HandlerFunc(mw)
}

// RequireSessionMiddleware redirects to the login page if there is no
// valid session
func RequireSessionMiddleware(inner http.Handler) http.Handler {
	mw := func(w http.ResponseWriter, r *http.Request) {
		if ContextToken(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
			return
		}

		inner.ServeHTTP(w, r)
	}

	return http.HandlerFunc(mw)
}

// ActiveServerMW resolves the :server pattern variable against the guilds
// the user can manage, 404s otherwise
func ActiveServerMW(inner http.Handler) http.Handler {
	mw := func(w http.ResponseWriter, r *http.Request) {
		guildID := pat.Param(r, "server")
		token := ContextToken(r.Context())

		session, err := bearerSession(token)
		if err != nil {
			logger.WithError(err).Error("failed creating bearer discord session")
			http.Redirect(w, r, "/manage", http.StatusTemporaryRedirect)
			return
		}

		guilds, err := session.UserGuilds(100, "", "")
		if err != nil {
			logger.WithError(err).Error("failed fetching user guilds")
			http.Redirect(w, r, "/manage", http.StatusTemporaryRedirect)
			return
		}

		var activeGuild *discordgo.UserGuild
		for _, g := range userManageableGuilds(guilds) {
			if g.ID == guildID {
				activeGuild = g
				break
			}
		}

		if activeGuild == nil {
			http.NotFound(w, r)
			return
		}

		templateData := GetTemplateData(r.Context())
		templateData["ActiveGuild"] = activeGuild

		inner.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyActiveGuild, activeGuild)))
	}

	return http.HandlerFunc(mw)
}

var errNotLoggedIn = fmt.Errorf("not logged in")

// GetAuthToken retrieves the oauth token behind a session cookie from redis
func GetAuthToken(sessionID string) (*oauth2.Token, error) {
	var accessToken string
	err := common.RedisPool.Do(radix.Cmd(&accessToken, "GET", "discord_token:"+sessionID))
	if err != nil {
		return nil, err
	}

	if accessToken == "" {
		return nil, errNotLoggedIn
	}

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}
