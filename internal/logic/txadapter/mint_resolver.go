package txadapter

import (
	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/types"
)

// mintKV 缓存条目：mint base58 → Pubkey + decimals
type mintKV struct {
	base58   string
	pubkey   types.Pubkey
	decimals uint8
}

// mintResolver 将 base58 mint 解析为 Pubkey，并记录 decimals。
// 单笔交易涉及的 mint 很少，线性查找即可。
type mintResolver struct {
	cache []mintKV
}

func newMintResolver(capacity int) *mintResolver {
	return &mintResolver{cache: make([]mintKV, 0, capacity)}
}

// resolve 返回 mintStr 对应的 Pubkey；解码失败返回 error
func (r *mintResolver) resolve(mintStr string, decimals uint8) (types.Pubkey, error) {
	switch mintStr {
	case consts.WSOLMintStr:
		return consts.WSOLMint, nil
	case consts.USDCMintStr:
		return consts.USDCMint, nil
	case consts.USDTMintStr:
		return consts.USDTMint, nil
	}
	for _, item := range r.cache {
		if item.base58 == mintStr {
			return item.pubkey, nil
		}
	}
	pk, err := types.TryPubkeyFromBase58(mintStr)
	if err != nil {
		return types.Pubkey{}, err
	}
	r.cache = append(r.cache, mintKV{base58: mintStr, pubkey: pk, decimals: decimals})
	return pk, nil
}

// buildTokenDecimals 返回本交易涉及的 mint → decimals，常用 quote token 固定附带
func (r *mintResolver) buildTokenDecimals() []core.TokenDecimals {
	list := make([]core.TokenDecimals, 0, len(r.cache)+3)
	list = append(list, core.TokenDecimals{Token: consts.WSOLMint, Decimals: consts.WSOLDecimals})
	for _, kv := range r.cache {
		list = append(list, core.TokenDecimals{Token: kv.pubkey, Decimals: kv.decimals})
	}
	list = append(list,
		core.TokenDecimals{Token: consts.USDCMint, Decimals: consts.USDCDecimals},
		core.TokenDecimals{Token: consts.USDTMint, Decimals: consts.USDTDecimals},
	)
	return list
}
