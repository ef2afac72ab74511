// Copyright GoFrame Author(https://goframe.org). All Rights Reserved.
//
// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT was not distributed with this file,
// You can obtain one at https://github.com/gogf/gf.

package dba

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogf/gf/util/grand"
)

// randIntn picks a pseudo-random int in [0, n), using the teacher's grand
// package (gdb.go's getConfigNodeByWeight) rather than math/rand directly.
func randIntn(n int) int {
	if n <= 1 {
		return 0
	}
	return grand.N(0, n-1)
}

// DefaultGroupName is the configuration group used when none is named.
const DefaultGroupName = "default"

// ConfigNode describes one logical connection's worth of configuration.
// Ported from the teacher's gdb_core_config.go ConfigNode, narrowed to the
// four engines this core drives (postgres, sqlite, mssql, hana) and to the
// fields SPEC_FULL.md §10.4 names.
type ConfigNode struct {
	Host string `json:"host"`
	Port string `json:"port"`
	User string `json:"user"`
	Pass string `json:"pass"`
	Name string `json:"name"` // database/schema name
	Type string `json:"type"` // "postgres", "sqlite", "mssql", "hana"
	Role string `json:"role"` // "master" (default) or "slave"

	Debug bool `json:"debug"`

	LinkInfo string `json:"link"` // when set, Host/Port/User/Pass/Name are ignored

	Weight int `json:"weight"`

	MaxConnPoolSize int `json:"maxConnPoolSize"`

	QueryTimeout   time.Duration `json:"queryTimeout"`
	ExecTimeout    time.Duration `json:"execTimeout"`
	TranTimeout    time.Duration `json:"tranTimeout"`
	PrepareTimeout time.Duration `json:"prepareTimeout"`
}

func (node *ConfigNode) String() string {
	return fmt.Sprintf(`%s@%s:%s,%s,%s,%s,%v#%s`,
		node.User, node.Host, node.Port, node.Name, node.Type, node.Role, node.Debug, node.LinkInfo)
}

// ConfigGroup is the set of nodes (one master, optionally several slaves)
// backing a named logical group.
type ConfigGroup []ConfigNode

// Config maps a group name to its ConfigGroup.
type Config map[string]ConfigGroup

var configs struct {
	sync.RWMutex
	config Config
	group  string
}

func init() {
	configs.config = make(Config)
	configs.group = DefaultGroupName
}

// SetConfig replaces the package's global configuration wholesale.
func SetConfig(config Config) {
	configs.Lock()
	defer configs.Unlock()
	configs.config = config
}

// SetConfigGroup sets the configuration for a named group.
func SetConfigGroup(group string, nodes ConfigGroup) {
	configs.Lock()
	defer configs.Unlock()
	configs.config[group] = nodes
}

// AddConfigNode appends one node to a named group's configuration.
func AddConfigNode(group string, node ConfigNode) {
	configs.Lock()
	defer configs.Unlock()
	configs.config[group] = append(configs.config[group], node)
}

// GetConfig returns the configuration for a named group.
func GetConfig(group string) ConfigGroup {
	configs.RLock()
	defer configs.RUnlock()
	return configs.config[group]
}

// SetDefaultGroup sets the default group name used when Open is called
// with an empty group.
func SetDefaultGroup(name string) {
	configs.Lock()
	defer configs.Unlock()
	configs.group = name
}

// getConfigNodeByGroup separates master/slave nodes for group and picks one
// by weight, matching the teacher's getConfigNodeByGroup/getConfigNodeByWeight
// split (gdb.go): this core's sub-connection pool (§4.5) still operates
// within a single node once selected here.
func getConfigNodeByGroup(group string, master bool) (*ConfigNode, error) {
	configs.RLock()
	list, ok := configs.config[group]
	configs.RUnlock()
	if !ok {
		return nil, newError(fmt.Sprintf("empty database configuration for group %q", group))
	}
	var masters, slaves ConfigGroup
	for _, n := range list {
		if n.Role == "slave" {
			slaves = append(slaves, n)
		} else {
			masters = append(masters, n)
		}
	}
	if len(masters) < 1 {
		return nil, newError("at least one master node configuration is required")
	}
	if len(slaves) < 1 {
		slaves = masters
	}
	if master {
		return pickNodeByWeight(masters), nil
	}
	return pickNodeByWeight(slaves), nil
}

// pickNodeByWeight picks a random node weighted by ConfigNode.Weight,
// defaulting every node to weight 1 if none carry an explicit weight.
func pickNodeByWeight(cg ConfigGroup) *ConfigNode {
	if len(cg) < 2 {
		return &cg[0]
	}
	total := 0
	for i := range cg {
		total += cg[i].Weight * 100
	}
	if total == 0 {
		for i := range cg {
			cg[i].Weight = 1
			total += 100
		}
	}
	r := randIntn(total)
	min := 0
	for i := range cg {
		max := min + cg[i].Weight*100
		if r >= min && r < max {
			return &cg[i]
		}
		min = max
	}
	return &cg[len(cg)-1]
}
