package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"releasegate/pkg/types"
)

// 规范化编码: 相同报告总是得到相同字节，因此 ID 可复现
var encOptions = cbor.EncOptions{
	// 1. Map Key 排序
	Sort: cbor.SortCanonical,
	// 2. 时间统一为 Unix 整数
	Time:    cbor.TimeUnix,
	TimeTag: cbor.EncTagNone,
	// 3. 禁止不定长编码
	IndefLength: cbor.IndefLengthForbidden,
}

var em, _ = encOptions.EncMode()

var decOptions = cbor.DecOptions{
	// 限制容器大小，防止损坏的文件耗尽内存
	MaxArrayElements: 100000,
	MaxMapPairs:      100000,
	MaxNestedLevels:  32,

	IndefLength: cbor.IndefLengthForbidden,
	DupMapKey:   cbor.DupMapKeyEnforcedAPF,
}

var dm, _ = decOptions.DecMode()

// Encode 返回报告的规范化字节和 ID (SHA-256 hex)
func Encode(r *Report) ([]byte, string, error) {
	data, err := em.Marshal(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: encode report: %w", types.ErrInvalidInput, err)
	}
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// Decode 解码报告
func Decode(data []byte) (*Report, error) {
	var r Report
	if err := dm.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: decode report: %w", types.ErrInvalidInput, err)
	}
	return &r, nil
}
