package main

import (
	"github.com/senticord/senticord/commands"
	"github.com/senticord/senticord/common/run"
	"github.com/senticord/senticord/serverconfig"
	"github.com/senticord/senticord/stdcommands"
	"github.com/senticord/senticord/verification"
)

func main() {
	run.Init()

	// plugins are registered here explicitly, nothing is discovered at
	// runtime
	commands.RegisterPlugin()
	stdcommands.RegisterPlugin()
	serverconfig.RegisterPlugin()
	verification.RegisterPlugin()

	run.Run()
}
