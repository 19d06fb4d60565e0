package main

import (
	"trendlens-backend/cmd/trendlens/commands"
	"trendlens-backend/pkg/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
