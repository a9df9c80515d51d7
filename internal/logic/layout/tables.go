package layout

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var tableFS embed.FS

// accountTables[kind] 为该指令的账户名列表（按链上顺序）
var accountTables [kindCount][]string

func init() {
	if err := loadTables(); err != nil {
		panic(err)
	}
}

func loadTables() error {
	byName := make(map[string]Kind, kindCount)
	for k := Kind(1); k < kindCount; k++ {
		byName[kindNames[k]] = k
	}

	entries, err := tableFS.ReadDir("tables")
	if err != nil {
		return fmt.Errorf("read layout tables: %w", err)
	}
	for _, entry := range entries {
		raw, err := tableFS.ReadFile("tables/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read layout table %s: %w", entry.Name(), err)
		}
		var table map[string][]string
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return fmt.Errorf("parse layout table %s: %w", entry.Name(), err)
		}
		for name, accounts := range table {
			kind, ok := byName[name]
			if !ok {
				return fmt.Errorf("layout table %s: unknown instruction %q", entry.Name(), name)
			}
			accountTables[kind] = accounts
		}
	}

	for k := Kind(1); k < kindCount; k++ {
		if len(accountTables[k]) == 0 {
			return fmt.Errorf("layout table: missing accounts for %s", k)
		}
	}
	return nil
}

// AccountNames 返回指令的账户名列表
func AccountNames(kind Kind) []string {
	if kind >= kindCount {
		return nil
	}
	return accountTables[kind]
}
