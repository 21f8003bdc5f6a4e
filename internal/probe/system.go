package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"admetrics/internal/pkg/logger"
	"admetrics/internal/pkg/telemetry"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/host"
)

const dmiVendorPath = "/sys/class/dmi/id/sys_vendor"

type ipInfo struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Loc     string `json:"loc"`
}

// SystemProber combines a geo-IP lookup, host facts and the caller's
// User-Agent.
type SystemProber struct {
	ipInfoURL string
	client    *http.Client
	log       zerolog.Logger

	hostInfo    func(ctx context.Context) (*host.InfoStat, error)
	readFile    func(name string) ([]byte, error)
	getenv      func(key string) string
	currentUser func() (*user.User, error)
	goos        string
}

func NewSystemProber(ipInfoURL string, timeout time.Duration) *SystemProber {
	return &SystemProber{
		ipInfoURL:   strings.TrimRight(ipInfoURL, "/"),
		client:      &http.Client{Timeout: timeout},
		log:         logger.WithComponent("probe"),
		hostInfo:    host.InfoWithContext,
		readFile:    os.ReadFile,
		getenv:      os.Getenv,
		currentUser: user.Current,
		goos:        runtime.GOOS,
	}
}

func (p *SystemProber) Probe(ctx context.Context, client Client) Snapshot {
	var s Snapshot

	if geo, err := p.lookupGeo(ctx, client.IP); err != nil {
		p.softFail("geo", err)
	} else {
		s.IP = geo.IP
		s.Region = geo.Region
		s.City = geo.City
		s.Country = geo.Country
		s.Location = geo.Loc
	}
	if client.IP != "" {
		s.IP = client.IP
	}

	if info, err := p.hostInfo(ctx); err != nil {
		p.softFail("host", err)
		s.Platform = titleCase(p.goos)
	} else {
		s.Platform = titleCase(info.OS)
		s.Hostname = info.Hostname
	}

	s.DeviceType = p.deviceType(client.UserAgent)
	s.DeviceVendor = p.deviceVendor(s.DeviceType)

	if u, err := p.currentUser(); err != nil {
		p.softFail("user", err)
	} else {
		s.GuestName = u.Username
	}

	return s
}

func (p *SystemProber) lookupGeo(ctx context.Context, clientIP string) (*ipInfo, error) {
	url := p.ipInfoURL + "/json"
	if isPublicIP(clientIP) {
		url = fmt.Sprintf("%s/%s/json", p.ipInfoURL, clientIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipinfo returned status %d", resp.StatusCode)
	}

	var info ipInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &info, nil
}

func (p *SystemProber) deviceType(userAgent string) string {
	if p.getenv("ANDROID_ROOT") != "" || isMobileAgent(userAgent) {
		return "Mobile"
	}
	switch p.goos {
	case "linux", "windows", "darwin":
		return "Laptop"
	default:
		return "Unknown"
	}
}

func (p *SystemProber) deviceVendor(deviceType string) string {
	if deviceType != "Laptop" {
		return ""
	}
	switch p.goos {
	case "darwin":
		return "Apple"
	case "linux":
		b, err := p.readFile(dmiVendorPath)
		if err != nil {
			p.softFail("dmi", err)
			return ""
		}
		return strings.TrimSpace(string(b))
	default:
		return ""
	}
}

func (p *SystemProber) softFail(source string, err error) {
	telemetry.ProbeFailures.WithLabelValues(source).Inc()
	p.log.Debug().Err(err).Str("source", source).Msg("probe lookup failed")
}

func isPublicIP(raw string) bool {
	ip := net.ParseIP(raw)
	if ip == nil {
		return false
	}
	return !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsUnspecified() && !ip.IsLinkLocalUnicast()
}

func isMobileAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, marker := range []string{"mobile", "android", "iphone", "ipad"} {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
