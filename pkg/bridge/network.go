/*
 * Copyright 2026 The MassaPay Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package bridge

import (
	"net"
	"slices"

	psnet "github.com/shirou/gopsutil/v3/net"
)

const loopbackIPv4 = "127.0.0.1"

// OutwardIPv4 returns the first IPv4 address of an interface that is up and
// not a loopback. It falls back to 127.0.0.1.
func OutwardIPv4() string {
	ifaces, err := psnet.Interfaces()
	if err != nil {
		return loopbackIPv4
	}

	return outwardIPv4(ifaces)
}

func outwardIPv4(ifaces psnet.InterfaceStatList) string {
	for _, iface := range ifaces {
		if !slices.Contains(iface.Flags, "up") || slices.Contains(iface.Flags, "loopback") {
			continue
		}

		for _, addr := range iface.Addrs {
			if ip := parseIPv4(addr.Addr); ip != "" {
				return ip
			}
		}
	}

	return loopbackIPv4
}

// parseIPv4 accepts "a.b.c.d/nn" or a bare address.
func parseIPv4(raw string) string {
	ip, _, err := net.ParseCIDR(raw)
	if err != nil {
		ip = net.ParseIP(raw)
	}

	if ip == nil || ip.IsLoopback() {
		return ""
	}

	v4 := ip.To4()
	if v4 == nil {
		return ""
	}

	return v4.String()
}

// advertisedHost is the host placed in pairing data and Started events.
func advertisedHost(listenHost string, discover func() string) string {
	switch listenHost {
	case "", "0.0.0.0", "::", "[::]":
		return discover()
	default:
		return listenHost
	}
}
