package consts

const (
	DexMeteoraDAMM = iota + 1 // 1
	DexMeteoraDLMM            // 2
)

var DexNames = []string{
	"Unknown",     // 0 (保留)
	"MeteoraDAMM", // 1
	"MeteoraDLMM", // 2
}

func DexName(dex int) string {
	if dex >= 1 && dex < len(DexNames) {
		return DexNames[dex]
	}
	return DexNames[0] // Unknown
}
