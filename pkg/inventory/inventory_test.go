package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInventory = `
vars:
  env: production
  ntp_server: pool.ntp.org

webservers:
  vars:
    http_port: 80
  hosts:
    web1:
      host: 10.0.0.1
      http_port: 8080
    web2:

databases:
  hosts:
    db1:
      host: 10.0.1.1
`

func loadSample(t *testing.T) *Inventory {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleInventory), 0o644))
	inv, err := Load(path)
	require.NoError(t, err)
	return inv
}

func TestLoadInventory(t *testing.T) {
	inv := loadSample(t)

	require.Len(t, inv.Hosts, 3)
	require.Len(t, inv.Groups, 2)
	assert.Equal(t, "production", inv.Vars["env"])

	web1, err := inv.GetHostByName("web1")
	require.NoError(t, err)
	assert.Equal(t, "web1", web1.Name)
	assert.Equal(t, "10.0.0.1", web1.Host)
	assert.Equal(t, 8080, web1.Vars["http_port"])

	// Host entries without a body still resolve, name doubles as address
	web2, err := inv.GetHostByName("web2")
	require.NoError(t, err)
	assert.Equal(t, "web2", web2.Host)

	_, err = inv.GetHostByName("web9")
	assert.Error(t, err)
}

func TestLoadInventoryErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("webservers: [not: valid"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestListHosts(t *testing.T) {
	inv := loadSample(t)

	tests := []struct {
		pattern string
		want    []string
	}{
		{"", []string{"db1", "web1", "web2"}},
		{"all", []string{"db1", "web1", "web2"}},
		{"*", []string{"db1", "web1", "web2"}},
		{"web*", []string{"web1", "web2"}},
		{"web1", []string{"web1"}},
		{"databases", []string{"db1"}},
		{"nothing*", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, inv.ListHosts(tt.pattern))
		})
	}
}

func TestInitialFactsForHost(t *testing.T) {
	inv := loadSample(t)

	web1, err := inv.GetHostByName("web1")
	require.NoError(t, err)
	facts := inv.InitialFactsForHost(web1)

	// Host vars override group vars, group vars override globals
	assert.Equal(t, 8080, facts["http_port"])
	assert.Equal(t, "production", facts["env"])
	assert.Equal(t, "pool.ntp.org", facts["ntp_server"])

	web2, err := inv.GetHostByName("web2")
	require.NoError(t, err)
	facts = inv.InitialFactsForHost(web2)
	assert.Equal(t, 80, facts["http_port"])
}

func TestFind(t *testing.T) {
	saved := DefaultPaths
	defer func() { DefaultPaths = saved }()

	existing := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(existing, []byte("webservers:\n  hosts:\n    web1:\n"), 0o644))

	DefaultPaths = []string{"", filepath.Join(t.TempDir(), "missing"), existing}
	assert.Equal(t, existing, Find())

	DefaultPaths = []string{""}
	assert.Equal(t, "", Find())
}
