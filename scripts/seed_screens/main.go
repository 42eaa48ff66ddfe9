package main

import (
	"fmt"
	"log"

	"github.com/screenvault/internal/config"
	"github.com/screenvault/internal/db"
	"github.com/screenvault/internal/service"
)

// 示例大屏生成器，方便本地联调展示端与历史页。
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	screens := service.NewScreenService(db.DB)

	samples := []service.ScreenUploadInput{
		{
			Name: "机房总览",
			Content: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400 300">
  <rect x="10" y="10" width="380" height="280" fill="#102a43" rx="8"/>
  <text x="200" y="150" fill="#d9e2ec" font-size="24" text-anchor="middle">机房总览</text>
</svg>`,
			Changes: "初始布局",
		},
		{
			Name: "流水线状态",
			Content: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400 300">
  <circle cx="200" cy="150" r="90" fill="#2f855a"/>
  <text x="200" y="156" fill="#f0fff4" font-size="20" text-anchor="middle">流水线正常</text>
</svg>`,
			Changes: "新增状态圆环",
		},
	}

	for _, sample := range samples {
		screen, err := screens.Upload(sample)
		if err != nil {
			log.Fatalf("示例大屏 %q 写入失败: %v", sample.Name, err)
		}
		fmt.Printf("示例大屏已写入: %s (v%d)\n", screen.Name, screen.Version)
	}
}
