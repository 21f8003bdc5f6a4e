// Package probe resolves the network and device context of an interaction.
//
// Every lookup is best-effort: a failed lookup leaves its fields empty and
// never returns an error, because metrics collection must not block on it.
package probe

import (
	"context"
	"strings"
)

// Client is what the HTTP layer knows about the caller.
type Client struct {
	IP        string
	UserAgent string
}

// Snapshot is the resolved context. Empty fields mean "unknown".
type Snapshot struct {
	IP           string
	Region       string
	City         string
	Country      string
	Location     string
	Platform     string
	Hostname     string
	DeviceType   string
	DeviceVendor string
	GuestName    string
}

// DeviceName is the device dimension value: vendor and type, space separated.
func (s Snapshot) DeviceName() string {
	return strings.TrimSpace(s.DeviceVendor + " " + s.DeviceType)
}

type Prober interface {
	Probe(ctx context.Context, client Client) Snapshot
}

// Static always returns the same snapshot, with the caller IP filled in when
// the snapshot has none.
type Static struct {
	Snapshot Snapshot
}

func (s Static) Probe(_ context.Context, client Client) Snapshot {
	out := s.Snapshot
	if out.IP == "" {
		out.IP = client.IP
	}
	return out
}
