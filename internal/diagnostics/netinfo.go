package diagnostics

import (
	"context"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/wonny/dqbreaks/pkg/httputil"
	"github.com/wonny/dqbreaks/pkg/logger"
)

// ExternalIPUnknown is reported when every lookup service fails
const ExternalIPUnknown = "Could not determine external IP"

// DefaultIPServices are tried in order
var DefaultIPServices = []string{"https://api.ipify.org", "https://ifconfig.me"}

// NetInfo is the /api/ip payload
type NetInfo struct {
	Hostname       string            `json:"hostname"`
	LocalIP        string            `json:"local_ip"`
	ExternalIP     string            `json:"external_ip"`
	ClientIP       string            `json:"client_ip"`
	XForwardedFor  *string           `json:"x_forwarded_for"`
	RequestHeaders map[string]string `json:"request_headers"`
}

// Resolver looks up host and caller addresses
type Resolver struct {
	client   *httputil.Client
	services []string
	logger   *logger.Logger
	hostname func() (string, error)
}

// NewResolver creates a resolver querying services for the external address
func NewResolver(client *httputil.Client, log *logger.Logger, services ...string) *Resolver {
	if len(services) == 0 {
		services = DefaultIPServices
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{client: client, services: services, logger: log, hostname: os.Hostname}
}

// ExternalIP returns the first answer from the lookup services,
// or ExternalIPUnknown
func (r *Resolver) ExternalIP(ctx context.Context) string {
	for _, svc := range r.services {
		ip, err := r.client.GetText(ctx, svc)
		if err != nil {
			r.logger.WithError(err).WithField("service", svc).Warn("External IP lookup failed")
			continue
		}
		if ip != "" {
			return ip
		}
	}
	return ExternalIPUnknown
}

// Inspect gathers network details for the request
func (r *Resolver) Inspect(ctx context.Context, req *http.Request) NetInfo {
	host, err := r.hostname()
	if err != nil {
		host = ""
	}

	info := NetInfo{
		Hostname:       host,
		LocalIP:        localIP(host),
		ExternalIP:     r.ExternalIP(ctx),
		ClientIP:       clientIP(req.RemoteAddr),
		RequestHeaders: flattenHeaders(req),
	}
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		info.XForwardedFor = &xff
	}
	return info
}

// localIP resolves the hostname, falling back to the first non-loopback
// interface address
func localIP(host string) string {
	if host != "" {
		if addrs, err := net.LookupHost(host); err == nil {
			for _, a := range addrs {
				if ip := net.ParseIP(a); ip != nil && ip.To4() != nil && !ip.IsLoopback() {
					return a
				}
			}
		}
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "127.0.0.1"
}

// clientIP strips the port from a RemoteAddr
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func flattenHeaders(req *http.Request) map[string]string {
	out := make(map[string]string, len(req.Header)+1)
	for k, v := range req.Header {
		out[k] = strings.Join(v, ", ")
	}
	if req.Host != "" {
		out["Host"] = req.Host
	}
	return out
}
