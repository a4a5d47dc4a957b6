package main

import (
	"os"

	"go.uber.org/zap"

	"mssql-openapi/cmd"
	"mssql-openapi/pkg/util"
)

func main() {
	logger := util.InitZapLog("")
	zap.ReplaceGlobals(logger)
	defer func() {
		_ = zap.L().Sync()
	}()
	if err := cmd.NewRootCommand().Execute(); err != nil {
		zap.S().Error(err)
		os.Exit(1)
	}
}
