package util

import (
	"fmt"
	"strings"
	"time"
)

// PartialFilePrefix 临时分片结果文件前缀
const PartialFilePrefix = "temp_file_"

// GenerateTaskID 生成统一的任务ID，格式：20250726_55103123
func GenerateTaskID() string {
	return taskIDAt(time.Now())
}

func taskIDAt(now time.Time) string {
	tsStr := fmt.Sprintf("%d", now.Unix())
	return fmt.Sprintf("%s_%s", now.Format("20060102"), tsStr[len(tsStr)-8:])
}

// GenerateTableName 生成数据库表名
func GenerateTableName(taskID string) string {
	return fmt.Sprintf("task_%s", taskID)
}

// GeneratePartialFileName 生成worker临时文件名，序号补零保证字典序即分片顺序
func GeneratePartialFileName(taskID string, worker int) string {
	return fmt.Sprintf("%s%s_%03d.csv", PartialFilePrefix, taskID, worker)
}

// IsPartialFileName 判断是否为临时分片文件
func IsPartialFileName(name string) bool {
	return strings.HasPrefix(name, PartialFilePrefix) && strings.HasSuffix(name, ".csv")
}
