package common

import (
	"database/sql"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	_ "github.com/lib/pq"
	"github.com/mediocregopher/radix/v3"
	"github.com/senticord/senticord/common/config"
	"github.com/sirupsen/logrus"
)

const (
	VERSION = "1.4.0"
)

var (
	// BotSession is the main discord session used for both gateway events and
	// REST calls, initialized by CoreInit
	BotSession *discordgo.Session
	BotUser    *discordgo.User

	RedisPool *radix.Pool
	PQ        *sql.DB

	Testing bool // true when running under go test

	logger = GetFixedPrefixLogger("common")
)

var (
	ConfBotToken     = config.RegisterOption("senticord.bot_token", "Discord bot token", "")
	ConfClientID     = config.RegisterOption("senticord.client_id", "Discord application client id", "")
	ConfClientSecret = config.RegisterOption("senticord.client_secret", "Discord application client secret", "")
	ConfHost         = config.RegisterOption("senticord.host", "Externally reachable host of the web panel", "localhost:5000")

	ConfRedis = config.RegisterOption("senticord.redis", "Redis address", "localhost:6379")

	ConfPQHost     = config.RegisterOption("senticord.pqhost", "Postgres host", "localhost")
	ConfPQUsername = config.RegisterOption("senticord.pqusername", "Postgres user", "postgres")
	ConfPQPassword = config.RegisterOption("senticord.pqpassword", "Postgres password", "")
	ConfPQDB       = config.RegisterOption("senticord.pqdb", "Postgres database name", "senticord")
)

// CoreInit loads the config and sets up the core connections (redis,
// postgres, the discord session). Fatal configuration problems (missing bot
// token, unreachable storage) are returned and should abort startup.
func CoreInit(loadConfig bool) error {
	if loadConfig {
		config.AddSource(&config.EnvSource{})
		config.Load()
	}

	err := connectRedis(ConfRedis.GetString())
	if err != nil {
		return errors.WrapIf(err, "connect_redis")
	}

	// with redis available, let it override env provided options
	config.AddSource(&config.RedisConfigStore{Pool: RedisPool})
	config.Load()

	err = connectDB(ConfPQHost.GetString(), ConfPQUsername.GetString(), ConfPQPassword.GetString(), ConfPQDB.GetString())
	if err != nil {
		return errors.WrapIf(err, "connect_db")
	}

	if ConfBotToken.GetString() == "" {
		return errors.New("no bot token provided, set the SENTICORD_BOT_TOKEN env var")
	}

	BotSession, err = discordgo.New("Bot " + ConfBotToken.GetString())
	if err != nil {
		return errors.WrapIf(err, "discordgo")
	}

	return nil
}

// Init performs the remaining shared initialization that requires the core
// connections, such as fetching the bot user.
func Init() error {
	self, err := BotSession.User("@me")
	if err != nil {
		return errors.WrapIf(err, "failed fetching bot user")
	}
	BotUser = self

	return nil
}

func connectRedis(addr string) (err error) {
	// 10 connections, to handle the web panel and bot sharing the pool
	RedisPool, err = radix.NewPool("tcp", addr, 10)
	if err != nil {
		logger.WithError(err).Error("failed intitializing redis pool")
	}

	return
}

func connectDB(host, user, pass, dbName string) error {
	if host == "" {
		host = "localhost"
	}

	db, err := sql.Open("postgres", "host="+host+" user="+user+" dbname="+dbName+" sslmode=disable password='"+pass+"'")
	if err != nil {
		return err
	}

	PQ = db
	PQ.SetMaxOpenConns(5)

	return PQ.Ping()
}

func AddLogHook(hook logrus.Hook) {
	logrus.AddHook(hook)
}

func SetLogFormatter(formatter logrus.Formatter) {
	logrus.SetFormatter(formatter)
}
