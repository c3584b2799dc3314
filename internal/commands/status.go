package commands

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go-logrelay/pkg/util"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemStats holds the host figures shown by /status. Zero values mean
// the lookup failed.
type SystemStats struct {
	Platform      string
	HostUptime    time.Duration
	CPUPercent    float64
	MemoryPercent float64
	ProcessRSS    uint64
	GoRoutines    int
}

// gatherSystemStats collects host statistics. Each reading is best effort.
func gatherSystemStats() SystemStats {
	stats := SystemStats{GoRoutines: runtime.NumGoroutine()}

	if hostInfo, err := host.Info(); err == nil {
		stats.Platform = fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion)
		stats.HostUptime = time.Duration(hostInfo.Uptime) * time.Second
	}

	// Zero interval compares against the previous call instead of sleeping.
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		stats.CPUPercent = pct[0]
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = memInfo.UsedPercent
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			stats.ProcessRSS = info.RSS
		}
	}

	return stats
}

func (h *Handler) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	var rs RuntimeStats
	if h.deps.Stats != nil {
		rs = h.deps.Stats()
	}

	gc := h.deps.Store.Snapshot(i.GuildID)
	embed := statusEmbed(statusView{
		Runtime:          rs,
		ConfiguredHere:   len(gc.Channels),
		ConfiguredGuilds: len(h.deps.Store.GuildIDs()),
		Persistent:       h.deps.Store.Persistent(),
		Uptime:           time.Since(h.startedAt),
		System:           gatherSystemStats(),
	})
	return respondEmbed(s, i, embed)
}

type statusView struct {
	Runtime          RuntimeStats
	ConfiguredHere   int
	ConfiguredGuilds int
	Persistent       bool
	Uptime           time.Duration
	System           SystemStats
}

func statusEmbed(v statusView) *discordgo.MessageEmbed {
	storage := "Durable"
	color := colorOK
	if !v.Persistent {
		storage = "Memory only (settings are lost on restart)"
		color = colorWarn
	}

	platform := v.System.Platform
	if platform == "" {
		platform = runtime.GOOS
	}

	return &discordgo.MessageEmbed{
		Title: "Relay Status",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Log categories here", Value: fmt.Sprintf("%d configured", v.ConfiguredHere), Inline: true},
			{Name: "Configured guilds", Value: fmt.Sprintf("%d of %d", v.ConfiguredGuilds, v.Runtime.Guilds), Inline: true},
			{Name: "Storage", Value: storage, Inline: true},
			{Name: "Cached messages", Value: fmt.Sprintf("%d", v.Runtime.CachedMessages), Inline: true},
			{Name: "Invite tracking", Value: fmt.Sprintf("%d guilds", v.Runtime.InviteGuilds), Inline: true},
			{Name: "Uptime", Value: util.FormatUptime(v.Uptime), Inline: true},
			{
				Name: "Host",
				Value: fmt.Sprintf("%s • up %s\nCPU %.1f%% • RAM %.1f%%\nProcess %s • %d goroutines",
					platform, util.FormatUptime(v.System.HostUptime),
					v.System.CPUPercent, v.System.MemoryPercent,
					util.FormatBytes(v.System.ProcessRSS), v.System.GoRoutines),
			},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
