package web

import (
	"net/http"

	"github.com/gorilla/schema"
	"github.com/senticord/senticord/serverconfig"
)

var formDecoder = schema.NewDecoder()

func init() {
	formDecoder.IgnoreUnknownKeys(true)
}

func IndexHandler(w http.ResponseWriter, r *http.Request) (TemplateData, error) {
	data := TemplateData{
		"InviteURL": "https://discord.com/oauth2/authorize?client_id=" + GetTemplateData(r.Context())["ClientID"].(string) + "&scope=bot%20applications.commands&permissions=268437506",
	}

	return data, nil
}

// SelectServerHandler lists the guilds the logged in user can manage
func SelectServerHandler(w http.ResponseWriter, r *http.Request) (TemplateData, error) {
	data := make(TemplateData)

	token := ContextToken(r.Context())
	session, err := bearerSession(token)
	if err != nil {
		return data, err
	}

	guilds, err := session.UserGuilds(100, "", "")
	if err != nil {
		return data, err
	}

	data["Guilds"] = userManageableGuilds(guilds)
	return data, nil
}

// GuildSettingsHandler shows the verification settings form for the
// active guild
func GuildSettingsHandler(w http.ResponseWriter, r *http.Request) (TemplateData, error) {
	data := make(TemplateData)

	activeGuild := ContextActiveGuild(r.Context())
	settings, err := serverconfig.Default.GetSettings(r.Context(), activeGuild.ID)
	if err != nil {
		return data, err
	}

	data["Settings"] = settings
	return data, nil
}

type guildSettingsForm struct {
	VerifiedRole string `schema:"verified_role"`
	LogChannel   string `schema:"log_channel"`
}

// GuildSettingsPostHandler saves the settings form and re-renders it
func GuildSettingsPostHandler(w http.ResponseWriter, r *http.Request) (TemplateData, error) {
	data := make(TemplateData)

	activeGuild := ContextActiveGuild(r.Context())

	err := r.ParseForm()
	if err != nil {
		return data, err
	}

	var form guildSettingsForm
	err = formDecoder.Decode(&form, r.PostForm)
	if err != nil {
		return data, err
	}

	err = serverconfig.Default.SetSettings(r.Context(), activeGuild.ID, &form.VerifiedRole, &form.LogChannel)
	if err != nil {
		return data, err
	}

	settings, err := serverconfig.Default.GetSettings(r.Context(), activeGuild.ID)
	if err != nil {
		return data, err
	}

	data["Settings"] = settings
	data.AddAlerts(SuccessAlert("Settings saved."))
	return data, nil
}
