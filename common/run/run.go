// Package run ties together the configuration, core connections and the
// enabled services into the process lifecycle.
package run

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/senticord/senticord/bot"
	"github.com/senticord/senticord/common"
	"github.com/senticord/senticord/common/config"
	"github.com/senticord/senticord/common/sentryhook"
	"github.com/senticord/senticord/web"
	log "github.com/sirupsen/logrus"
)

var (
	flagRunBot        bool
	flagRunWeb        bool
	flagRunEverything bool

	flagDryRun bool

	flagLogTimestamp bool

	flagVersion bool
)

var confSentryDSN = config.RegisterOption("senticord.sentry_dsn", "Sentry credentials for the sentry logging hook", "")

func init() {
	flag.BoolVar(&flagRunBot, "bot", false, "Set to run the discord bot")
	flag.BoolVar(&flagRunWeb, "web", false, "Set to run the web panel")
	flag.BoolVar(&flagRunEverything, "all", false, "Set to run everything (bot and web panel)")
	flag.BoolVar(&flagDryRun, "dry", false, "Do a dry run, initialize all plugins but don't actually start anything")
	flag.BoolVar(&flagLogTimestamp, "ts", false, "Set to include timestamps in log")
	flag.BoolVar(&flagVersion, "version", false, "Print the version and exit")
}

func Init() {
	if !flag.Parsed() {
		flag.Parse()
	}

	if flagVersion {
		fmt.Println(common.VERSION)
		os.Exit(0)
	}

	common.AddLogHook(common.ContextHook{})

	common.SetLogFormatter(&log.TextFormatter{
		DisableTimestamp: !flagLogTimestamp,
		SortingFunc:      logrusSortingFunc,
	})

	if !flagRunBot && !flagRunWeb && !flagRunEverything && !flagDryRun {
		log.Error("Didn't specify what to run, see -h for more info")
		os.Exit(1)
	}

	log.Info("Starting senticord version " + common.VERSION)

	err := common.CoreInit(true)
	if err != nil {
		log.WithError(err).Fatal("Failed running core init")
	}

	if confSentryDSN.GetString() != "" {
		addSentryHook()
	}

	err = common.Init()
	if err != nil {
		log.WithError(err).Fatal("Failed initializing")
	}

	log.Info("Starting plugins")
}

func Run() {
	if flagDryRun {
		log.Println("This is a dry run, exiting")
		return
	}

	if flagRunBot || flagRunEverything {
		bot.Enabled = true
	}

	if flagRunWeb || flagRunEverything {
		go web.Run()
	}

	if flagRunBot || flagRunEverything {
		bot.Run()
	}

	listenSignal()
}

// Graceful shutdown, on the safe side we sleep a bit at the end in case
// something is still finishing up in untracked goroutines
func listenSignal() {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	shutdown()
}

func shutdown() {
	log.Info("SHUTTING DOWN...")

	shouldWait := false
	wg := new(sync.WaitGroup)

	if flagRunBot || flagRunEverything {
		wg.Add(1)

		go bot.Stop(wg)

		shouldWait = true
	}

	if flagRunWeb || flagRunEverything {
		web.Stop()
	}

	if shouldWait {
		log.Info("Waiting for things to shut down...")
		wg.Wait()
	}

	log.Info("Sleeping for a second to allow work to finish")
	time.Sleep(time.Second)

	log.Info("Bye..")
	os.Exit(0)
}

func addSentryHook() {
	err := sentry.Init(sentry.ClientOptions{
		Dsn: confSentryDSN.GetString(),
	})

	if err != nil {
		log.WithError(err).Error("Failed adding sentry hook")
		return
	}

	hook := &sentryhook.Hook{}
	common.AddLogHook(hook)
	log.Info("Added Sentry Hook")
}

var logSortPriority = []string{
	"time",
	"level",
	"p",
	"msg",
	"stck",
}

func logrusSortingFunc(fields []string) {
	sort.Slice(fields, func(i, j int) bool {
		iPriority := findStringIndex(logSortPriority, fields[i])
		jPriority := findStringIndex(logSortPriority, fields[j])

		if iPriority != -1 && jPriority == -1 {
			return true
		} else if jPriority != -1 && iPriority == -1 {
			return false
		} else if iPriority == -1 && jPriority == -1 {
			return strings.Compare(fields[i], fields[j]) > 1
		}

		// both have priority
		return iPriority < jPriority
	})
}

func findStringIndex(slice []string, s string) int {
	for i, v := range slice {
		if v == s {
			return i
		}
	}

	return -1
}
