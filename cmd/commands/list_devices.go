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

package commands

import (
	"fmt"
	"os"

	"github.com/phuonguno98/unoreport/internal/collector"
	"github.com/phuonguno98/unoreport/internal/config"
	"github.com/phuonguno98/unoreport/internal/devices"
	"github.com/spf13/cobra"
)

var listDevicesCmd = &cobra.Command{
	Use:   "list-devices",
	Short: "List mounted volumes and network interfaces",
	Long: `List all mounted volumes and network interfaces on the system.
The REPORTED column shows which volumes the current mount filters keep,
which helps to configure include_mounts/exclude_mounts accurately.

Examples:
  # List devices using filters from config.yaml
  unoreport list-devices

  # Check another configuration
  unoreport list-devices --config /etc/unoreport/config.yaml

  # Try filters before writing them to the config
  unoreport list-devices --include-mounts "/,/data" --exclude-mounts "/boot"`,
	RunE: runListDevices,
}

func init() {
	rootCmd.AddCommand(listDevicesCmd)
}

func runListDevices(cmd *cobra.Command, _ []string) error {
	fmt.Println("\n========================================")
	fmt.Println("   UnoReport - Available Devices")
	fmt.Println("========================================")

	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Using default filters: %v\n", err)
		cfg = config.Default()
		applyMountFlags(cmd, cfg)
	}
	filter := collector.NewMountFilter(cfg.MonitorAllDisks, cfg.IncludeMounts, cfg.ExcludeMounts)

	// List volumes
	volumes, err := devices.ListVolumes(filter)
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error listing volumes: %v\n", err)
	case len(volumes) == 0:
		fmt.Println("\nNo mounted volumes found.")
	default:
		fmt.Print(devices.FormatVolumesTable(volumes))
		fmt.Println("\nExample config:")
		fmt.Println("  monitor_all_disks: true")
		fmt.Printf("  include_mounts: [\"%s\"]\n", volumes[0].Mountpoint)
		if len(volumes) > 1 {
			fmt.Printf("  exclude_mounts: [\"%s\"]\n", volumes[1].Mountpoint)
		}
	}

	// List network interfaces
	networks, err := devices.ListNetworkInterfaces()
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error listing network interfaces: %v\n", err)
	case len(networks) == 0:
		fmt.Println("\nNo network interfaces found.")
	default:
		fmt.Print(devices.FormatNetworksTable(networks))
	}

	fmt.Println("\nNotes:")
	fmt.Println("  - Use comma to separate multiple mounts: --exclude-mounts=\"/boot,/snap\"")
	fmt.Println("  - monitor_all_disks: false reports the root volume only")
	fmt.Println("  - Exclude filters take priority over include filters")
	fmt.Println("  - Empty include list means report all volumes (except excluded)")
	fmt.Println("  - The local address in reports comes from the hostname, then the first non-loopback interface")
	fmt.Println()

	return nil
}
