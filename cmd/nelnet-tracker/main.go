package main

import (
	"github.com/Homebrew-Software/nelnet-tracker/cmd/nelnet-tracker/commands"
	"github.com/Homebrew-Software/nelnet-tracker/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
