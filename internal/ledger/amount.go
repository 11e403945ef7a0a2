package ledger

import (
	"fmt"
	"math/big"
)

// 金额统一使用big.Int，避免浮点误差和溢出

var (
	zero    = big.NewInt(0)
	hundred = big.NewInt(100)
)

// ParseAmount 解析十进制金额字符串
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("无法解析金额: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("金额不能为负数: %q", s)
	}
	return v, nil
}

// MustAmount 解析十进制金额字符串，失败时panic，仅用于常量和测试
func MustAmount(s string) *big.Int {
	v, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return v
}

// amountString 金额转十进制字符串，nil视为0
func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// cloneAmount 复制金额，nil视为0
func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
