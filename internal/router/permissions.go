package router

import (
	"sort"
	"strconv"
)

// permissionNames covers the bits moderators ask about. Unnamed bits show
// up as their number.
var permissionNames = map[int64]string{
	1 << 0:  "Create Invite",
	1 << 1:  "Kick Members",
	1 << 2:  "Ban Members",
	1 << 3:  "Administrator",
	1 << 4:  "Manage Channels",
	1 << 5:  "Manage Server",
	1 << 6:  "Add Reactions",
	1 << 7:  "View Audit Log",
	1 << 10: "View Channels",
	1 << 11: "Send Messages",
	1 << 13: "Manage Messages",
	1 << 14: "Embed Links",
	1 << 15: "Attach Files",
	1 << 17: "Mention Everyone",
	1 << 20: "Connect",
	1 << 21: "Speak",
	1 << 22: "Mute Members",
	1 << 23: "Deafen Members",
	1 << 24: "Move Members",
	1 << 26: "Change Nickname",
	1 << 27: "Manage Nicknames",
	1 << 28: "Manage Roles",
	1 << 29: "Manage Webhooks",
	1 << 30: "Manage Expressions",
	1 << 33: "Manage Events",
	1 << 34: "Manage Threads",
	1 << 40: "Moderate Members",
}

// permissionDelta names the bits granted and revoked between two masks.
func permissionDelta(before, after int64) (granted, revoked []string) {
	for bit := 0; bit < 63; bit++ {
		mask := int64(1) << bit
		was, is := before&mask != 0, after&mask != 0
		if was == is {
			continue
		}
		name := permissionName(mask, bit)
		if is {
			granted = append(granted, name)
		} else {
			revoked = append(revoked, name)
		}
	}
	sort.Strings(granted)
	sort.Strings(revoked)
	return granted, revoked
}

func permissionName(mask int64, bit int) string {
	if name, ok := permissionNames[mask]; ok {
		return name
	}
	return "bit " + strconv.Itoa(bit)
}
