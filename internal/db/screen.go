package db

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Screen 定义大屏 SVG 资源模型。
// 同一 name 会存在多行：最早一行是“当前”行，内容随上传原地刷新，
// 后续行按上传顺序记录历史版本快照。name 不加唯一约束。
type Screen struct {
	gorm.Model
	UUID     string `gorm:"size:36;index"`
	Name     string `gorm:"index"`
	HTMLFile string `gorm:"type:text"`
	Version  int    `gorm:"default:1"`
	Changes  string `gorm:"type:text"`
}

// TableName 指定自定义表名。
func (Screen) TableName() string {
	return "screens"
}

// BeforeCreate 为每次入库的行生成上传标识。
func (s *Screen) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	return nil
}
