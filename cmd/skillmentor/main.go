// skillmentor 命令行客户端：登录、选课、进度、评价、笔记与管理端操作
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"
)

func main() {
	_ = godotenv.Load()
	if err := newCLI(os.Stdout, os.Stderr).execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
