package admin

import (
	"fmt"
	"github.com/shirou/gopsutil/cpu"
	"runtime"
	"strings"
	"time"
	"twitchbot/internal/app/domain/command"
)

type Ping struct {
	startedAt  time.Time
	cpuPercent func() float64
	memoryMB   func() uint64
}

func NewPing() *Ping {
	return &Ping{
		startedAt: time.Now(),
		cpuPercent: func() float64 {
			percent, _ := cpu.Percent(0, false)
			if len(percent) == 0 {
				return 0
			}
			return percent[0]
		},
		memoryMB: func() uint64 {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return m.Sys / 1024 / 1024
		},
	}
}

func (p *Ping) Text() string {
	uptime := time.Since(p.startedAt)
	return fmt.Sprintf("bot uptime %v • CPU %.2f%% • RAM %v MB", uptime.Truncate(time.Second), p.cpuPercent(), p.memoryMB())
}

func (a *Admin) handlePing(inv command.Invocation) {
	a.reply(inv, "@"+inv.User+" "+a.ping.Text())
}

// handleSay repeats the argument into the channel the command came from.
func (a *Admin) handleSay(inv command.Invocation) {
	text := strings.TrimSpace(inv.Args)
	if text == "" {
		return
	}
	a.reply(inv, text)
}
