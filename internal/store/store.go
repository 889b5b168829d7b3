package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"domain_status_checker/internal/model"
	"domain_status_checker/internal/util"
)

// PartialStore worker 独占的临时结果文件，只追加，每行写入后立即落盘
type PartialStore struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// Create 在 dir 下创建 temp_file_<taskID>_<worker>.csv
func Create(dir, taskID string, worker int, comma rune) (*PartialStore, error) {
	path := filepath.Join(dir, util.GeneratePartialFileName(taskID, worker))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("创建临时结果文件失败: %w", err)
	}
	writer := csv.NewWriter(file)
	writer.Comma = comma
	return &PartialStore{path: path, file: file, writer: writer}, nil
}

// Path 文件路径
func (s *PartialStore) Path() string {
	return s.path
}

// Append 写入一行并同步到磁盘
func (s *PartialStore) Append(o model.ProbeOutcome) error {
	if err := s.writer.Write(o.Record()); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", s.path, err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("同步 %s 失败: %w", s.path, err)
	}
	return nil
}

// Close 关闭文件，文件本身保留到汇总阶段
func (s *PartialStore) Close() error {
	s.writer.Flush()
	werr := s.writer.Error()
	cerr := s.file.Close()
	return errors.Join(werr, cerr)
}

// Discover 按文件名排序返回 dir 下所有临时结果文件
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !util.IsPartialFileName(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadRows 读取临时结果文件的全部行，不做校验
func ReadRows(path string, comma rune) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// Cleanup 删除 dir 下所有临时结果文件，返回删除数量；重复调用无副作用
func Cleanup(dir string) (int, error) {
	paths, err := Discover(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			if !os.IsNotExist(err) {
				errs = append(errs, err)
			}
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// OrphanPrefix 上次运行遗留的临时结果文件改名后的前缀，改名后不再被 Discover 发现
const OrphanPrefix = "orphan_"

// Quarantine 将 dir 下遗留的临时结果文件改名为 orphan_<原文件名> 保留下来，返回改名后的路径
func Quarantine(dir string) ([]string, error) {
	paths, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	var kept []string
	var errs []error
	for _, p := range paths {
		target := filepath.Join(filepath.Dir(p), OrphanPrefix+filepath.Base(p))
		if err := os.Rename(p, target); err != nil {
			errs = append(errs, err)
			continue
		}
		kept = append(kept, target)
	}
	return kept, errors.Join(errs...)
}
