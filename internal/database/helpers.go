package database

import (
	"sort"
	"strings"
)

func splitChain(chain string) []string {
	var out []string
	for _, d := range strings.Split(chain, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// topN 保留出现次数最多的 n 个，n<=0 表示全部
func topN(counts map[string]int, n int) map[string]int {
	if n <= 0 || len(counts) <= n {
		return counts
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	out := make(map[string]int, n)
	for _, k := range keys[:n] {
		out[k] = counts[k]
	}
	return out
}
