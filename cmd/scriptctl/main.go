// Package main scriptctl 命令行工具：预算表、请求校验、示例库查询与离线生成
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
