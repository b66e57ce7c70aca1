package web

import (
	"net/http"

	"github.com/mediocregopher/radix/v3"
	"github.com/senticord/senticord/common"
	"golang.org/x/oauth2"
)

const SessionCookieName = "senticord-session"

// Sessions last a week before the panel asks for a new login
const sessionExpirySeconds = 60 * 60 * 24 * 7

var oauthConf *oauth2.Config

func InitOauth() {
	oauthConf = &oauth2.Config{
		ClientID:     common.ConfClientID.GetString(),
		ClientSecret: common.ConfClientSecret.GetString(),
		Scopes:       []string{"identify", "guilds"},
		RedirectURL:  BaseURL() + "/confirm_login",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://discord.com/api/oauth2/authorize",
			TokenURL: "https://discord.com/api/oauth2/token",
		},
	}
}

// HandleLogin sends the user off to discord with a fresh csrf token
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	csrfToken, err := createCSRFToken()
	if err != nil {
		logger.WithError(err).Error("failed creating csrf token")
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	url := oauthConf.AuthCodeURL(csrfToken, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// HandleConfirmLogin is the oauth2 callback, it exchanges the code for a
// token and creates the session
func HandleConfirmLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := r.FormValue("state")
	if ok, err := checkCSRFToken(state); !ok {
		if err != nil {
			logger.WithError(err).Error("failed validating csrf token")
		} else {
			logger.Info("invalid csrf token in login confirmation")
		}
		http.Redirect(w, r, "/?error=bad-csrf", http.StatusTemporaryRedirect)
		return
	}

	code := r.FormValue("code")
	token, err := oauthConf.Exchange(ctx, code)
	if err != nil {
		logger.WithError(err).Error("failed exchanging oauth2 code")
		http.Redirect(w, r, "/?error=oauth2failure", http.StatusTemporaryRedirect)
		return
	}

	sessionID, err := createSession(token)
	if err != nil {
		logger.WithError(err).Error("failed creating session")
		http.Redirect(w, r, "/?error=loginfailed", http.StatusTemporaryRedirect)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookieName,
		Value:  sessionID,
		MaxAge: sessionExpirySeconds,
		Path:   "/",
	})

	http.Redirect(w, r, "/manage", http.StatusTemporaryRedirect)
}

func HandleLogout(w http.ResponseWriter, r *http.Request) {
	defer http.Redirect(w, r, "/", http.StatusTemporaryRedirect)

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return
	}

	err = common.RedisPool.Do(radix.Cmd(nil, "DEL", "discord_token:"+cookie.Value))
	if err != nil {
		logger.WithError(err).Error("failed deleting session token")
	}

	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookieName,
		Value:  "",
		MaxAge: -1,
		Path:   "/",
	})
}

// createCSRFToken pushes a new csrf token onto the validation list, keeping
// only the most recent ones around
func createCSRFToken() (string, error) {
	str := RandBase64(32)

	err := common.RedisPool.Do(radix.Cmd(nil, "LPUSH", "csrf", str))
	if err != nil {
		return "", err
	}

	err = common.RedisPool.Do(radix.Cmd(nil, "LTRIM", "csrf", "0", "99"))
	return str, err
}

// checkCSRFToken returns true if the token was issued by us, consuming it
func checkCSRFToken(token string) (bool, error) {
	var num int
	err := common.RedisPool.Do(radix.Cmd(&num, "LREM", "csrf", "-1", token))
	if err != nil {
		return false, err
	}

	return num > 0, nil
}

func createSession(token *oauth2.Token) (string, error) {
	sessionID := RandBase64(32)

	err := common.RedisPool.Do(radix.FlatCmd(nil, "SET", "discord_token:"+sessionID, token.AccessToken, "EX", sessionExpirySeconds))
	if err != nil {
		return "", err
	}

	return sessionID, nil
}
