// Package web is the control panel: discord OAuth2 login, server selection
// and the per guild settings form.
package web

import (
	"context"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/senticord/senticord/common"
	"github.com/senticord/senticord/common/config"
	"goji.io"
	"goji.io/pat"
)

var (
	// Core template files
	Templates *template.Template

	RootMux *goji.Mux
	CPMux   *goji.Mux

	confListenAddress = config.RegisterOption("senticord.web.listen_address", "Address the web panel listens on", ":5000")

	server *http.Server

	logger = common.GetFixedPrefixLogger("web")
)

// BaseURL returns the externally reachable root of the panel
func BaseURL() string {
	host := common.ConfHost.GetString()
	if strings.HasPrefix(host, "localhost") {
		return "http://" + host
	}

	return "https://" + host
}

func loadTemplates() {
	Templates = template.New("")
	Templates = Templates.Funcs(template.FuncMap{
		"title": strings.Title,
	})
	Templates = template.Must(Templates.ParseFiles(
		"templates/index.html",
		"templates/cp_selectserver.html",
		"templates/cp_guild_settings.html",
	))
}

func Run() {
	loadTemplates()
	InitOauth()

	mux := setupRoutes()

	logger.Info("Starting senticord web server on ", confListenAddress.GetString())

	server = &http.Server{
		Addr:    confListenAddress.GetString(),
		Handler: mux,
	}

	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("Failed http ListenAndServe")
	}
}

func Stop() {
	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	server.Shutdown(ctx)
}

func setupRoutes() *goji.Mux {
	accessLogger := &lumberjack.Logger{
		Filename: "access.log",
		MaxSize:  10,
	}

	mux := goji.NewMux()
	RootMux = mux

	mux.Use(RequestLogger(accessLogger))

	// General middleware
	mux.Use(MiscMiddleware)
	mux.Use(BaseTemplateDataMiddleware)
	mux.Use(SessionMiddleware)
	mux.Use(UserInfoMiddleware)

	// General handlers
	mux.Handle(pat.Get("/"), RenderHandler(IndexHandler, "index"))
	mux.HandleFunc(pat.Get("/login"), HandleLogin)
	mux.HandleFunc(pat.Get("/confirm_login"), HandleConfirmLogin)
	mux.HandleFunc(pat.Get("/logout"), HandleLogout)

	// Server selection has its own handler
	mux.Handle(pat.Get("/manage"), RequireSessionMiddleware(RenderHandler(SelectServerHandler, "cp_selectserver")))
	mux.Handle(pat.Get("/manage/"), RequireSessionMiddleware(RenderHandler(SelectServerHandler, "cp_selectserver")))

	// Per server control panel, requires manage server permissions on the
	// guild being managed
	serverCpMuxer := goji.SubMux()
	serverCpMuxer.Use(RequireSessionMiddleware)
	serverCpMuxer.Use(ActiveServerMW)

	mux.Handle(pat.New("/manage/:server"), serverCpMuxer)
	mux.Handle(pat.New("/manage/:server/*"), serverCpMuxer)

	serverCpMuxer.Handle(pat.Get("/"), RenderHandler(GuildSettingsHandler, "cp_guild_settings"))
	serverCpMuxer.Handle(pat.Get(""), RenderHandler(GuildSettingsHandler, "cp_guild_settings"))
	serverCpMuxer.Handle(pat.Post("/"), RenderHandler(GuildSettingsPostHandler, "cp_guild_settings"))
	serverCpMuxer.Handle(pat.Post(""), RenderHandler(GuildSettingsPostHandler, "cp_guild_settings"))
	CPMux = serverCpMuxer

	return mux
}
