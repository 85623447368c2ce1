package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/goliatone/go-airlock/pkg/lint"
)

func main() {
	singlechecker.Main(lint.Analyzer)
}
