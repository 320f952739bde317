package inventory

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultPaths are the inventory locations probed in order by Find.
var DefaultPaths = []string{
	os.Getenv("ANSIBLE_HOSTS"),
	filepath.Join(os.Getenv("HOME"), ".ansible.hosts"),
	"/etc/ansible/hosts",
}

// Inventory represents the complete inventory structure
type Inventory struct {
	Hosts  map[string]*Host
	Vars   map[string]interface{}
	Groups map[string]*Group
}

// Host represents a single host in the inventory
type Host struct {
	Name   string                 `yaml:"-"`
	Host   string                 `yaml:"host"`
	Vars   map[string]interface{} `yaml:"-"`
	Groups map[string]string      `yaml:"groups"`
}

// Group represents a group of hosts in the inventory
type Group struct {
	Hosts map[string]*Host       `yaml:"hosts"`
	Vars  map[string]interface{} `yaml:"vars"`
}

// Find returns the first existing inventory file among DefaultPaths,
// or an empty string when none exists.
func Find() string {
	for _, candidate := range DefaultPaths {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// Load reads and parses a YAML inventory file.
func Load(filename string) (*Inventory, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading inventory %s: %w", filename, err)
	}
	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("error parsing inventory %s: %w", filename, err)
	}
	return &inv, nil
}

// UnmarshalYAML implements custom YAML unmarshaling for Inventory to
// handle top-level groups
func (inv *Inventory) UnmarshalYAML(value *yaml.Node) error {
	var rawData map[string]yaml.Node
	if err := value.Decode(&rawData); err != nil {
		return err
	}

	inv.Hosts = make(map[string]*Host)
	inv.Vars = make(map[string]interface{})
	inv.Groups = make(map[string]*Group)

	for key, node := range rawData {
		if key == "vars" {
			// Global variables
			if err := node.Decode(&inv.Vars); err != nil {
				return fmt.Errorf("failed to decode inventory vars: %w", err)
			}
			continue
		}

		// All other top-level keys are groups with hosts and vars subkeys
		var group Group
		if err := node.Decode(&group); err != nil {
			return fmt.Errorf("failed to decode group %s: %w", key, err)
		}
		if group.Hosts == nil {
			group.Hosts = make(map[string]*Host)
		}
		for hostName, host := range group.Hosts {
			if host == nil {
				host = &Host{}
				group.Hosts[hostName] = host
			}
			host.Name = hostName
			if host.Host == "" {
				host.Host = hostName
			}
			inv.Hosts[hostName] = host
		}
		inv.Groups[key] = &group
	}

	return nil
}

// String returns the host name as string representation
func (h Host) String() string {
	return h.Name
}

// UnmarshalYAML implements custom YAML unmarshaling for Host to capture
// unknown fields into Vars
func (h *Host) UnmarshalYAML(value *yaml.Node) error {
	var rawData map[string]interface{}
	if err := value.Decode(&rawData); err != nil {
		return err
	}

	if h.Vars == nil {
		h.Vars = make(map[string]interface{})
	}

	if host, ok := rawData["host"].(string); ok {
		h.Host = host
	}
	if groups, ok := rawData["groups"].(map[string]interface{}); ok {
		if h.Groups == nil {
			h.Groups = make(map[string]string)
		}
		for k, v := range groups {
			if vStr, ok := v.(string); ok {
				h.Groups[k] = vStr
			}
		}
	}

	// Everything else is a host variable
	knownFields := map[string]bool{
		"host":   true,
		"groups": true,
	}
	for key, val := range rawData {
		if !knownFields[key] {
			h.Vars[key] = val
		}
	}

	return nil
}

// ListHosts returns the sorted host names matching the given pattern.
// The pattern matches host names and group names with shell-style
// globbing; "all" matches every host.
func (inv *Inventory) ListHosts(pattern string) []string {
	matched := make(map[string]bool)

	if pattern == "" || pattern == "all" || pattern == "*" {
		for name := range inv.Hosts {
			matched[name] = true
		}
	} else {
		for name := range inv.Hosts {
			if ok, _ := path.Match(pattern, name); ok {
				matched[name] = true
			}
		}
		for groupName, group := range inv.Groups {
			if ok, _ := path.Match(pattern, groupName); !ok {
				continue
			}
			for name := range group.Hosts {
				matched[name] = true
			}
		}
	}

	hosts := make([]string, 0, len(matched))
	for name := range matched {
		hosts = append(hosts, name)
	}
	sort.Strings(hosts)
	return hosts
}

// GetHostByName returns a host by name from the inventory
func (inv *Inventory) GetHostByName(name string) (*Host, error) {
	host, ok := inv.Hosts[name]
	if !ok {
		return nil, fmt.Errorf("host '%s' not found in inventory", name)
	}
	return host, nil
}

// InitialFactsForHost gathers and layers facts for a host: global
// inventory vars first, then group vars, then host vars.
func (inv *Inventory) InitialFactsForHost(host *Host) map[string]interface{} {
	facts := make(map[string]interface{})

	for k, v := range inv.Vars {
		facts[k] = v
	}

	for groupName, group := range inv.Groups {
		if _, isMember := group.Hosts[host.Name]; isMember {
			for k, v := range group.Vars {
				facts[k] = v
			}
			continue
		}
		if host.Groups != nil {
			if _, assigned := host.Groups[groupName]; assigned {
				for k, v := range group.Vars {
					facts[k] = v
				}
			}
		}
	}

	for k, v := range host.Vars {
		facts[k] = v
	}

	return facts
}
