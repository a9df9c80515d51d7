package layout

import "meteora-indexer-sol/internal/types"

// NamedAccounts 账户名 → 地址。指令实际账户数少于布局时，缺失的名字不会出现在 map 中。
type NamedAccounts map[string]types.Pubkey

// Get 返回具名账户，不存在时为零值
func (a NamedAccounts) Get(name string) types.Pubkey {
	return a[name]
}

// Require 按顺序校验账户存在且非零，返回第一个缺失项
func (a NamedAccounts) Require(names ...string) error {
	for _, name := range names {
		if pk, ok := a[name]; !ok || pk.IsZero() {
			return &MissingAccountError{Field: name}
		}
	}
	return nil
}

func bindAccounts(kind Kind, accounts []types.Pubkey) NamedAccounts {
	names := accountTables[kind]
	n := min(len(names), len(accounts))
	named := make(NamedAccounts, n)
	for i := 0; i < n; i++ {
		named[names[i]] = accounts[i]
	}
	return named
}
