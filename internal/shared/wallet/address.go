// Package wallet 以太坊钱包地址格式校验（EIP-55 混合大小写校验和）
package wallet

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

var (
	// ErrMalformed 不是 0x 前缀的 40 位十六进制地址
	ErrMalformed = errors.New("wallet: address must be 0x followed by 40 hex digits")
	// ErrChecksum 混合大小写地址的 EIP-55 校验和不匹配
	ErrChecksum = errors.New("wallet: address checksum mismatch")
)

// Validate 校验地址格式；全小写或全大写地址不携带校验和，直接通过
func Validate(address string) error {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return ErrMalformed
	}
	body := address[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return ErrMalformed
	}
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}
	if Checksum(address) != address {
		return ErrChecksum
	}
	return nil
}

// Checksum 返回地址的 EIP-55 形式，调用方需先保证格式合法
func Checksum(address string) string {
	lower := strings.ToLower(strings.TrimPrefix(address, "0x"))

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}
