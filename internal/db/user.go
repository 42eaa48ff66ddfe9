package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了管理员账号模型
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// EnsureUser 在用户名与密码均非空且账号不存在时，创建一个 bcrypt 哈希的管理员。
// 已存在同名账号时不做任何修改。
func EnsureUser(username, password string) error {
	name := strings.TrimSpace(username)
	plain := strings.TrimSpace(password)
	if name == "" || plain == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	err := DB.Where("username = ?", name).First(&User{}).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return DB.Create(&User{Username: name, Password: string(hashed)}).Error
}
