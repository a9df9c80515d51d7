package consts

import "meteora-indexer-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	//  Programs
	SystemProgramStr          = "11111111111111111111111111111111"
	TokenProgramStr           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TokenProgram2022Str       = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	AssociatedTokenProgramStr = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"

	// 常用 Mint，mintResolver 直接命中避免 base58 解码
	WSOLMintStr = "So11111111111111111111111111111111111111112"
	USDCMintStr = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMintStr = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"

	// DEX: Meteora
	MeteoraDAMMProgramStr = "Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB"
	MeteoraDLMMProgramStr = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"
)

var (
	// Programs
	SystemProgram          = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram           = types.PubkeyFromBase58(TokenProgramStr)
	TokenProgram2022       = types.PubkeyFromBase58(TokenProgram2022Str)
	AssociatedTokenProgram = types.PubkeyFromBase58(AssociatedTokenProgramStr)

	WSOLMint = types.PubkeyFromBase58(WSOLMintStr)
	USDCMint = types.PubkeyFromBase58(USDCMintStr)
	USDTMint = types.PubkeyFromBase58(USDTMintStr)

	// DEX: Meteora
	MeteoraDAMMProgram = types.PubkeyFromBase58(MeteoraDAMMProgramStr)
	MeteoraDLMMProgram = types.PubkeyFromBase58(MeteoraDLMMProgramStr)
)

// IsTokenProgram 判断是否为 SPL Token 或 Token-2022 程序
func IsTokenProgram(programID types.Pubkey) bool {
	return programID == TokenProgram || programID == TokenProgram2022
}

// IsTokenProgramStr 同 IsTokenProgram，用于 gRPC 余额快照中的字符串 programId
func IsTokenProgramStr(programID string) bool {
	return programID == TokenProgramStr || programID == TokenProgram2022Str
}
