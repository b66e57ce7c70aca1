// Package eventsystem dispatches discord gateway events to plugin handlers,
// with panic recovery and bounded retries so one misbehaving handler can't
// take down event processing for everyone else.
package eventsystem

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/senticord/senticord/common"
	"github.com/sirupsen/logrus"
)

type Event int

const (
	EventReady Event = iota
	EventGuildCreate
	EventGuildMemberAdd
	EventGuildMemberRemove
	EventMessageCreate
	EventInteractionCreate

	eventCount
)

var eventNames = map[Event]string{
	EventReady:             "Ready",
	EventGuildCreate:       "GuildCreate",
	EventGuildMemberAdd:    "GuildMemberAdd",
	EventGuildMemberRemove: "GuildMemberRemove",
	EventMessageCreate:     "MessageCreate",
	EventInteractionCreate: "InteractionCreate",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}

	return "Unknown"
}

// HandlerFunc handles an event, returning retry = true requeues the handler
// with backoff, up to a max of 5 attempts
type HandlerFunc func(evt *EventData) (retry bool, err error)

// HandlerFuncLegacy is a handler without the retry mechanism
type HandlerFuncLegacy func(evt *EventData)

type Handler struct {
	Plugin  common.Plugin
	F       HandlerFunc
	FLegacy HandlerFuncLegacy
}

type EventData struct {
	EvtInterface interface{}
	Type         Event
	Session      *discordgo.Session

	ctx context.Context
}

func (e *EventData) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}

	return e.ctx
}

func (e *EventData) WithContext(ctx context.Context) *EventData {
	cop := new(EventData)
	*cop = *e
	cop.ctx = ctx
	return cop
}

// Typed accessors, only valid for the matching event type

func (e *EventData) GuildMemberAdd() *discordgo.GuildMemberAdd {
	return e.EvtInterface.(*discordgo.GuildMemberAdd)
}

func (e *EventData) GuildMemberRemove() *discordgo.GuildMemberRemove {
	return e.EvtInterface.(*discordgo.GuildMemberRemove)
}

func (e *EventData) MessageCreate() *discordgo.MessageCreate {
	return e.EvtInterface.(*discordgo.MessageCreate)
}

func (e *EventData) InteractionCreate() *discordgo.InteractionCreate {
	return e.EvtInterface.(*discordgo.InteractionCreate)
}

func (e *EventData) Ready() *discordgo.Ready {
	return e.EvtInterface.(*discordgo.Ready)
}

func (e *EventData) GuildCreate() *discordgo.GuildCreate {
	return e.EvtInterface.(*discordgo.GuildCreate)
}

var handlers [eventCount][]*Handler

// AddHandler adds an event handler with retry semantics
func AddHandler(p common.Plugin, handler HandlerFunc, evts ...Event) {
	h := &Handler{
		F:      handler,
		Plugin: p,
	}

	for _, evt := range evts {
		handlers[evt] = append(handlers[evt], h)
	}
}

// AddHandlerLegacy adds an event handler that is never retried
func AddHandlerLegacy(p common.Plugin, handler HandlerFuncLegacy, evts ...Event) {
	h := &Handler{
		FLegacy: handler,
		Plugin:  p,
	}

	for _, evt := range evts {
		handlers[evt] = append(handlers[evt], h)
	}
}

// HandleEvent is registered as the catch-all discordgo handler, it maps the
// raw gateway event to our typed events and dispatches asynchronously.
// Handlers for the same event run sequentially relative to each other, but
// each incoming event is processed on its own goroutine.
func HandleEvent(s *discordgo.Session, evt interface{}) {
	var typ Event

	switch evt.(type) {
	case *discordgo.Ready:
		typ = EventReady
	case *discordgo.GuildCreate:
		typ = EventGuildCreate
	case *discordgo.GuildMemberAdd:
		typ = EventGuildMemberAdd
	case *discordgo.GuildMemberRemove:
		typ = EventGuildMemberRemove
	case *discordgo.MessageCreate:
		typ = EventMessageCreate
	case *discordgo.InteractionCreate:
		typ = EventInteractionCreate
	default:
		return
	}

	evtData := &EventData{
		EvtInterface: evt,
		Type:         typ,
		Session:      s,
		ctx:          context.Background(),
	}

	go emitEvent(evtData)
}

func emitEvent(data *EventData) {
	defer func() {
		if err := recover(); err != nil {
			stack := string(debug.Stack())
			logrus.WithField(logrus.ErrorKey, err).WithField("evt", data.Type.String()).Error("Recovered from panic in event handler\n" + stack)
		}
	}()

	runEvents(handlers[data.Type], data)
}

func runEvents(h []*Handler, data *EventData) {
	retryCount := 0
	for _, v := range h {
		retry := true
		sleepTime := 500 * time.Millisecond
		first := true

		for retry && retryCount < 5 {
			// sleep a bit between retries, up to 5 attempts with doubling
			// backoff
			if retry && !first {
				retryCount++
				time.Sleep(sleepTime)
				sleepTime *= 2
			}

			first = false

			if v.F == nil {
				retry = false
				v.FLegacy(data)
				continue
			}

			var err error
			retry, err = v.F(data)

			if err != nil {
				logrus.WithField("evt", data.Type.String()).Errorf("%s: An error occured in a discord event handler: %+v", v.Plugin.PluginInfo().SysName, err)
			}

			if retry {
				logrus.WithField("evt", data.Type.String()).Errorf("%s: Retrying event handler... %d", v.Plugin.PluginInfo().SysName, retryCount)
			}
		}
	}
}
