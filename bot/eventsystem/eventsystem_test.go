package eventsystem

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/senticord/senticord/common"
	"github.com/stretchr/testify/assert"
)

type testPlugin struct{}

func (p *testPlugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{Name: "Test", SysName: "test", Category: common.PluginCategoryCore}
}

func TestRunEventsRetriesUntilSuccess(t *testing.T) {
	calls := 0
	h := []*Handler{
		{
			Plugin: &testPlugin{},
			F: func(evt *EventData) (bool, error) {
				calls++
				// fail the first attempt, succeed on the retry
				return calls < 2, nil
			},
		},
	}

	runEvents(h, &EventData{Type: EventMessageCreate})

	assert.Equal(t, 2, calls)
}

func TestRunEventsHandlersRunInOrder(t *testing.T) {
	var order []int
	p := &testPlugin{}

	h := []*Handler{
		{Plugin: p, FLegacy: func(evt *EventData) { order = append(order, 1) }},
		{Plugin: p, FLegacy: func(evt *EventData) { order = append(order, 2) }},
		{Plugin: p, F: func(evt *EventData) (bool, error) { order = append(order, 3); return false, nil }},
	}

	runEvents(h, &EventData{Type: EventMessageCreate})

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEmitEventRecoversPanics(t *testing.T) {
	handlers[EventGuildCreate] = []*Handler{
		{Plugin: &testPlugin{}, FLegacy: func(evt *EventData) { panic("boom") }},
	}
	defer func() { handlers[EventGuildCreate] = nil }()

	assert.NotPanics(t, func() {
		emitEvent(&EventData{
			Type:         EventGuildCreate,
			EvtInterface: &discordgo.GuildCreate{},
		})
	})
}

func TestEventNames(t *testing.T) {
	assert.Equal(t, "MessageCreate", EventMessageCreate.String())
	assert.Equal(t, "GuildMemberAdd", EventGuildMemberAdd.String())
	assert.Equal(t, "Unknown", Event(999).String())
}
