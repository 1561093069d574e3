/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package collector

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/phuonguno98/unoreport/pkg/metrics"
)

// localLookupTimeout bounds hostname resolution against a misbehaving resolver.
const localLookupTimeout = 2 * time.Second

// NetworkCollector determines the host's network identity.
type NetworkCollector struct {
	provider   Provider
	external   *ExternalIPResolver // nil disables the external lookup
	lookupHost func(ctx context.Context, host string) ([]string, error)
	logger     *slog.Logger
}

// NewNetworkCollector creates a new network collector instance.
func NewNetworkCollector(provider Provider, external *ExternalIPResolver, logger *slog.Logger) *NetworkCollector {
	return &NetworkCollector{
		provider:   provider,
		external:   external,
		lookupHost: net.DefaultResolver.LookupHost,
		logger:     logger,
	}
}

// Collect returns the hostname, local and external address. It never fails:
// anything that cannot be determined is reported as metrics.Unavailable.
func (n *NetworkCollector) Collect(ctx context.Context) metrics.NetworkIdentity {
	identity := metrics.NetworkIdentity{
		Hostname:        metrics.Unavailable,
		LocalAddress:    metrics.Unavailable,
		ExternalAddress: metrics.Unavailable,
	}

	// The external lookup has its own timeout; overlap it with local resolution
	var externalChan chan string
	if n.external != nil {
		externalChan = make(chan string, 1)
		go func() {
			addr, err := n.external.Lookup(ctx)
			if err != nil {
				n.logger.Warn("Failed to get external address", "error", err)
				addr = ""
			}
			externalChan <- addr
		}()
	}

	hostname, err := n.provider.Hostname(ctx)
	if err != nil || hostname == "" {
		n.logger.Warn("Failed to get hostname", "error", err)
	} else {
		identity.Hostname = hostname
	}

	if addr := n.localAddress(ctx, hostname); addr != "" {
		identity.LocalAddress = addr
	} else {
		n.logger.Warn("Failed to determine local address", "hostname", hostname)
	}

	if externalChan != nil {
		if addr := <-externalChan; addr != "" {
			identity.ExternalAddress = addr
		}
	}

	return identity
}

// localAddress resolves the hostname first and falls back to interface
// addresses when the name only maps to loopback (common on Debian).
func (n *NetworkCollector) localAddress(ctx context.Context, hostname string) string {
	var loopback string

	if hostname != "" {
		lookupCtx, cancel := context.WithTimeout(ctx, localLookupTimeout)
		addrs, err := n.lookupHost(lookupCtx, hostname)
		cancel()
		if err != nil {
			n.logger.Debug("Hostname lookup failed", "hostname", hostname, "error", err)
		}
		if addr := pickAddress(addrs); addr != "" {
			return addr
		}
		if len(addrs) > 0 {
			loopback = addrs[0]
		}
	}

	ifaces, err := n.provider.Interfaces(ctx)
	if err != nil {
		n.logger.Debug("Interface enumeration failed", "error", err)
		return loopback
	}

	var candidates []string
	for _, iface := range ifaces {
		if isLoopbackInterface(iface.Name, iface.Flags) {
			continue
		}
		for _, a := range iface.Addrs {
			candidates = append(candidates, stripPrefixLength(a.Addr))
		}
	}

	if addr := pickAddress(candidates); addr != "" {
		return addr
	}
	return loopback
}

// pickAddress returns the first routable IPv4 address, then the first
// routable IPv6 address, or "".
func pickAddress(addrs []string) string {
	var v6 string
	for _, a := range addrs {
		ip := net.ParseIP(a)
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			continue
		}
		if ip.To4() != nil {
			return ip.String()
		}
		if v6 == "" {
			v6 = ip.String()
		}
	}
	return v6
}

func stripPrefixLength(addr string) string {
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		return addr[:i]
	}
	return addr
}

// isLoopbackInterface checks flags first and falls back to common names.
func isLoopbackInterface(name string, flags []string) bool {
	for _, f := range flags {
		if f == "loopback" {
			return true
		}
	}
	loopbacks := []string{"lo", "lo0", "Loopback"}
	for _, lo := range loopbacks {
		if name == lo || strings.HasPrefix(name, "Loopback ") {
			return true
		}
	}
	return false
}

// Name returns the collector name for logging purposes.
func (n *NetworkCollector) Name() string {
	return "Network"
}
