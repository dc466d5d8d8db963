// Package jsl loads the job inventory: the YAML list of tables a plan is
// compiled from.
package jsl

// Inventory is the root of an inventory file.
//
//	inventory:
//	  name: retail
//	  defaults:
//	    environment: dev
//	    source: Oracle
//	  jobs:
//	    - database: sales
//	      table: orders
//	      weight_code: HVYDLY
//	      check_column: updated_at
type Inventory struct {
	Name     string      `yaml:"name"`
	Defaults JobDefaults `yaml:"defaults"`
	Jobs     []JobEntry  `yaml:"jobs"`
}

// JobDefaults fills fields a JobEntry leaves empty.
type JobDefaults struct {
	Environment string `yaml:"environment"`
	Source      string `yaml:"source"`
	Connect     string `yaml:"connect"`
}

// JobEntry is one table of the inventory. The source dialect is given either
// as a tag (source) or as a JDBC connect string (connect); the tag wins when
// both are present. An entry naming neither takes both from the defaults.
type JobEntry struct {
	Database    string `yaml:"database"`
	Table       string `yaml:"table"`
	Environment string `yaml:"environment"`
	WeightCode  string `yaml:"weight_code"`
	CheckColumn string `yaml:"check_column"`
	Source      string `yaml:"source"`
	Connect     string `yaml:"connect"`
}

type inventoryFile struct {
	Inventory Inventory `yaml:"inventory"`
}
