// Package model 定义核心数据模型
package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRolePatient    UserRole = "patient"
	UserRoleResearcher UserRole = "researcher"
)

// Valid 是否为受支持的角色
func (r UserRole) Valid() bool {
	switch r {
	case UserRolePatient, UserRoleResearcher:
		return true
	default:
		return false
	}
}

// User 平台参与者
//
// 每个钱包地址对应唯一一条记录；地址与角色在创建后不可修改。
// JSON 字段名与前端约定保持一致（_id / walletAddress / role / createdAt）。
type User struct {
	ID            string    `json:"_id" bson:"_id" db:"id"`
	WalletAddress string    `json:"walletAddress" bson:"wallet_address" db:"wallet_address"`
	Role          UserRole  `json:"role" bson:"role" db:"role"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at" db:"created_at"`
}
