package consts

// GrpcAccountInclude 用于 gRPC 区块订阅过滤器，只保留涉及 Meteora DAMM / DLMM 的交易
var GrpcAccountInclude = []string{
	MeteoraDAMMProgramStr,
	MeteoraDLMMProgramStr,
}
