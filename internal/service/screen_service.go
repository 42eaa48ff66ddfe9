package service

import (
	"errors"
	"strings"

	"github.com/screenvault/internal/db"
	"gorm.io/gorm"
)

var (
	ErrScreenNotFound     = errors.New("screen not found")
	ErrScreenNameTooShort = errors.New("screen name is too short")
	ErrScreenFileMissing  = errors.New("screen file is required")
	ErrScreenFileTooLarge = errors.New("screen file exceeds size limit")
	ErrScreenFileNotSVG   = errors.New("screen file is not an svg document")
)

const (
	// MaxScreenFileBytes 限制单个 SVG 文件的体积上限（10 MiB）。
	MaxScreenFileBytes = 10 << 20

	minScreenNameLen = 2
	minScreenFileLen = 2
)

// ScreenService wraps screen related database operations.
type ScreenService struct {
	db *gorm.DB
}

// ScreenUploadInput represents fields accepted when uploading a screen.
type ScreenUploadInput struct {
	Name    string
	Content string
	Changes string
}

// ScreenFilter describes filters for listing current screens.
type ScreenFilter struct {
	Search  string
	Page    int
	PerPage int
}

// ScreenListResult aggregates paginated screen results.
type ScreenListResult struct {
	Items      []db.Screen
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// ScreenStats 汇总后台面板展示的计数。
type ScreenStats struct {
	Screens  int64
	Versions int64
}

// NewScreenService creates a ScreenService instance.
func NewScreenService(gdb *gorm.DB) *ScreenService {
	return &ScreenService{db: gdb}
}

// Upload 实现大屏上传：首次出现的 name 创建第一行，已存在的 name 追加一行
// 版本快照并原地刷新当前行的内容。查找、取号、写入在同一个事务里完成，
// 避免并发上传同名大屏时互相覆盖。
func (s *ScreenService) Upload(input ScreenUploadInput) (*db.Screen, error) {
	name := strings.TrimSpace(input.Name)
	if len([]rune(name)) < minScreenNameLen {
		return nil, ErrScreenNameTooShort
	}

	if err := validateScreenContent(input.Content); err != nil {
		return nil, err
	}
	content := SanitizeSVG(input.Content)
	changes := strings.TrimSpace(input.Changes)

	var current db.Screen
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("name = ?", name).Order("id asc").First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			current = db.Screen{
				Name:     name,
				HTMLFile: content,
				Version:  1,
				Changes:  changes,
			}
			return tx.Create(&current).Error
		}
		if err != nil {
			return err
		}

		next, err := nextVersion(tx)
		if err != nil {
			return err
		}

		snapshot := db.Screen{
			Name:     name,
			HTMLFile: content,
			Version:  next,
			Changes:  changes,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}

		// 当前行只刷新内容，version 保持首次入库时的值
		if err := tx.Model(&db.Screen{}).
			Where("id = ?", current.ID).
			Update("html_file", content).Error; err != nil {
			return err
		}

		current.HTMLFile = content
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &current, nil
}

// Current 返回指定 name 的当前行（同名行中最早入库的一行）。
func (s *ScreenService) Current(name string) (*db.Screen, error) {
	var screen db.Screen
	if err := s.db.Where("name = ?", strings.TrimSpace(name)).
		Order("id asc").
		First(&screen).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, err
	}
	return &screen, nil
}

// Get fetches a screen row by id.
func (s *ScreenService) Get(id uint) (*db.Screen, error) {
	var screen db.Screen
	if err := s.db.First(&screen, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, err
	}
	return &screen, nil
}

// List returns current screens matching the filter.
func (s *ScreenService) List(filter ScreenFilter) (ScreenListResult, error) {
	result := ScreenListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, 12),
	}

	currentIDs := s.db.Model(&db.Screen{}).Select("MIN(id)").Group("name")
	query := s.db.Model(&db.Screen{}).Where("id IN (?)", currentIDs)
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, err
	}

	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Order("updated_at desc").Order("id desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Items).Error; err != nil {
		return result, err
	}

	return result, nil
}

// History 返回指定 name 的全部版本行，按版本号升序。
func (s *ScreenService) History(name string) ([]db.Screen, error) {
	var items []db.Screen
	if err := s.db.Where("name = ?", strings.TrimSpace(name)).
		Order("version asc").Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrScreenNotFound
	}
	return items, nil
}

// HistoryByID 以任意一行为入口返回其 name 的完整历史。
func (s *ScreenService) HistoryByID(id uint) ([]db.Screen, error) {
	screen, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.History(screen.Name)
}

// Stats 返回当前大屏数量与累计存储的版本行数。
func (s *ScreenService) Stats() (ScreenStats, error) {
	var stats ScreenStats
	if err := s.db.Model(&db.Screen{}).
		Distinct("name").
		Count(&stats.Screens).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&db.Screen{}).Count(&stats.Versions).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

func validateScreenContent(content string) error {
	if strings.TrimSpace(content) == "" || len(content) < minScreenFileLen {
		return ErrScreenFileMissing
	}
	if len(content) > MaxScreenFileBytes {
		return ErrScreenFileTooLarge
	}
	if !LooksLikeSVG(content) {
		return ErrScreenFileNotSVG
	}
	return nil
}

// nextVersion 返回全表最大版本号加一。
// TODO: 版本号目前跨 name 全局递增，待存量数据重排后改为按 name 独立编号。
func nextVersion(tx *gorm.DB) (int, error) {
	var maxVersion int
	if err := tx.Model(&db.Screen{}).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error; err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePerPage(perPage, fallback int) int {
	if perPage <= 0 {
		return fallback
	}
	return perPage
}

func calculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
