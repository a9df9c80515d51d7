package txadapter

import (
	"meteora-indexer-sol/internal/types"
)

// OwnerCache goroutine 私有的 owner base58 → Pubkey 解码缓存，可跨交易复用，不可跨协程共享
type OwnerCache map[string]types.Pubkey

// ownerResolver 解析 owner 地址，命中缓存则跳过 base58 解码
type ownerResolver struct {
	cache OwnerCache
}

func newOwnerResolver(cache OwnerCache) *ownerResolver {
	if cache == nil {
		cache = make(OwnerCache)
	}
	return &ownerResolver{cache: cache}
}

// resolve 空字符串表示 owner 缺失，返回零值
func (r *ownerResolver) resolve(base58Str string) (types.Pubkey, error) {
	if base58Str == "" {
		return types.Pubkey{}, nil
	}
	if pk, ok := r.cache[base58Str]; ok {
		return pk, nil
	}
	pk, err := types.TryPubkeyFromBase58(base58Str)
	if err != nil {
		return types.Pubkey{}, err
	}
	r.cache[base58Str] = pk
	return pk, nil
}
