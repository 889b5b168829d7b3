package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"domain_status_checker/internal/model"
	"domain_status_checker/internal/store"
)

// Summary 汇总统计
type Summary struct {
	Stores int // 合并的临时文件数
	Rows   int // 写入的数据行数（不含表头）
}

// Aggregate 将 dir 下的全部临时结果文件按文件名顺序合并到 reportPath，
// 每个文件的内容写入并刷新后再删除该文件。
func Aggregate(dir, reportPath string, comma rune) (Summary, error) {
	var sum Summary

	paths, err := store.Discover(dir)
	if err != nil {
		return sum, fmt.Errorf("查找临时结果文件失败: %w", err)
	}

	file, err := os.Create(reportPath)
	if err != nil {
		return sum, fmt.Errorf("创建结果文件失败: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = comma
	if err := writer.Write(model.ReportHeader); err != nil {
		return sum, fmt.Errorf("写入表头失败: %w", err)
	}

	for i, p := range paths {
		rows, err := store.ReadRows(p, comma)
		if err != nil {
			logLeftover(paths[i:])
			return sum, err
		}
		if err := writer.WriteAll(rows); err != nil {
			return sum, fmt.Errorf("写入结果文件失败: %w", err)
		}
		if err := file.Sync(); err != nil {
			return sum, fmt.Errorf("同步结果文件失败: %w", err)
		}
		if err := os.Remove(p); err != nil {
			return sum, fmt.Errorf("删除临时文件失败: %w", err)
		}
		sum.Stores++
		sum.Rows += len(rows)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return sum, fmt.Errorf("写入结果文件失败: %w", err)
	}
	if err := file.Sync(); err != nil {
		return sum, fmt.Errorf("同步结果文件失败: %w", err)
	}

	log.Printf("[*] 已合并 %d 个临时文件，共 %d 条结果", sum.Stores, sum.Rows)
	return sum, file.Close()
}

// logLeftover 列出合并中断后仍留在磁盘上的临时结果文件
func logLeftover(paths []string) {
	log.Printf("[!] 合并中断，以下 %d 个临时结果文件未写入报告，已保留:", len(paths))
	for _, p := range paths {
		log.Printf("[!]   %s", p)
	}
}

// ReadReport 读取汇总报告，返回表头之后的数据行
func ReadReport(path string, comma rune) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	var rows [][]string
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}
