package web

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"
)

type ContextKey int

const (
	ContextKeyToken ContextKey = iota
	ContextKeyUser
	ContextKeyTemplateData
	ContextKeyActiveGuild
)

// TemplateData is the data passed to page templates
type TemplateData map[string]interface{}

func (t TemplateData) AddAlerts(alerts ...*Alert) TemplateData {
	if t["Alerts"] == nil {
		t["Alerts"] = make([]*Alert, 0)
	}

	t["Alerts"] = append(t["Alerts"].([]*Alert), alerts...)
	return t
}

type Alert struct {
	Style   string
	Message string
}

const (
	AlertDanger  = "danger"
	AlertSuccess = "success"
)

func ErrorAlert(msg string) *Alert {
	return &Alert{Style: AlertDanger, Message: msg}
}

func SuccessAlert(msg string) *Alert {
	return &Alert{Style: AlertSuccess, Message: msg}
}

// CustomHandler is a page handler that returns the data to render the page
// template with, errors get rendered as an alert
type CustomHandler func(w http.ResponseWriter, r *http.Request) (TemplateData, error)

// RenderHandler wraps a CustomHandler, rendering its template data with the
// named template
func RenderHandler(inner CustomHandler, tmpl string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := GetTemplateData(r.Context())

		if inner != nil {
			extra, err := inner(w, r)
			if err != nil {
				logger.WithError(err).WithField("page", tmpl).Error("failed serving page")
				data.AddAlerts(ErrorAlert("Something went wrong, try again later."))
			}

			for k, v := range extra {
				data[k] = v
			}
		}

		err := Templates.ExecuteTemplate(w, tmpl+".html", data)
		if err != nil {
			logger.WithError(err).WithField("page", tmpl).Error("failed rendering template")
		}
	})
}

func GetTemplateData(ctx context.Context) TemplateData {
	if v := ctx.Value(ContextKeyTemplateData); v != nil {
		return v.(TemplateData)
	}

	return make(TemplateData)
}

// ContextUser returns the logged in user, or nil
func ContextUser(ctx context.Context) *discordgo.User {
	if v := ctx.Value(ContextKeyUser); v != nil {
		return v.(*discordgo.User)
	}

	return nil
}

// ContextToken returns the oauth token of the session, or nil
func ContextToken(ctx context.Context) *oauth2.Token {
	if v := ctx.Value(ContextKeyToken); v != nil {
		return v.(*oauth2.Token)
	}

	return nil
}

// ContextActiveGuild returns the guild being managed, set by ActiveServerMW
func ContextActiveGuild(ctx context.Context) *discordgo.UserGuild {
	if v := ctx.Value(ContextKeyActiveGuild); v != nil {
		return v.(*discordgo.UserGuild)
	}

	return nil
}

// RandBase64 returns a url-safe random string of the given byte length
func RandBase64(size int) string {
	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}

	return base64.URLEncoding.EncodeToString(b)
}

// bearerSession returns a discord session authenticated as the user behind
// the oauth token, for querying their identity and guilds
func bearerSession(token *oauth2.Token) (*discordgo.Session, error) {
	return discordgo.New("Bearer " + token.AccessToken)
}

// userManageableGuilds filters the guilds of the user down to the ones they
// can manage (owner or manage-server permission)
func userManageableGuilds(guilds []*discordgo.UserGuild) []*discordgo.UserGuild {
	manageable := make([]*discordgo.UserGuild, 0, len(guilds))
	for _, g := range guilds {
		if g.Owner || g.Permissions&discordgo.PermissionManageServer != 0 || g.Permissions&discordgo.PermissionAdministrator != 0 {
			manageable = append(manageable, g)
		}
	}

	return manageable
}
