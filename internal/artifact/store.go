package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"finreport/internal/period"
)

// Store 按期间分区的文件存储：data/<期间键>/ 存放上传原件，
// output/<期间键>/ 存放生成的报表，mappings/ 存放导出的映射规则文件。
type Store struct {
	root string
}

// New 创建 Store 并确保根目录存在
func New(root string) (*Store, error) {
	s := &Store{root: root}
	for _, dir := range []string{root, s.dataRoot(), s.outputRoot(), s.MappingsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// Root 返回存储根目录
func (s *Store) Root() string { return s.root }

func (s *Store) dataRoot() string   { return filepath.Join(s.root, "data") }
func (s *Store) outputRoot() string { return filepath.Join(s.root, "output") }

// MappingsDir 映射规则导出目录
func (s *Store) MappingsDir() string { return filepath.Join(s.root, "mappings") }

// DBPath 台账数据库文件路径
func (s *Store) DBPath() string { return filepath.Join(s.dataRoot(), "platform.db") }

// DataDir 返回期间对应的数据子目录并确保其存在。
// 目录已存在不是错误，并发调用得到同一路径。
func (s *Store) DataDir(p string) (string, error) {
	return s.ensureSubdir(s.dataRoot(), p)
}

// OutputDir 返回期间对应的输出子目录并确保其存在
func (s *Store) OutputDir(p string) (string, error) {
	return s.ensureSubdir(s.outputRoot(), p)
}

func (s *Store) ensureSubdir(parent, p string) (string, error) {
	dir := filepath.Join(parent, period.DirectoryKey(p))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}

// FileExists 判断文件是否存在
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteFileAtomic 先写临时文件再重命名，避免出现半截文件
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// DirectorySizeBytes 递归统计目录下所有文件的字节数。
// 仅用于存储统计展示，目录并发变化时为尽力而为的结果。
func DirectorySizeBytes(path string) int64 {
	var total int64
	filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// DataSizeBytes 上传文件目录占用
func (s *Store) DataSizeBytes() int64 { return DirectorySizeBytes(s.dataRoot()) }

// OutputSizeBytes 生成报表目录占用
func (s *Store) OutputSizeBytes() int64 { return DirectorySizeBytes(s.outputRoot()) }

// MappingsSizeBytes 映射规则目录占用
func (s *Store) MappingsSizeBytes() int64 { return DirectorySizeBytes(s.MappingsDir()) }

// FormatSize 字节数的人类可读展示
func FormatSize(b int64) string {
	switch {
	case b < 1024:
		return fmt.Sprintf("%d B", b)
	case b < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(b)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(b)/(1024*1024))
	}
}
