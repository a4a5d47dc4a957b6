package util

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

const AppName = "mssql-openapi"

// 构建时通过 -ldflags "-X mssql-openapi/pkg/util.gitCommit=..." 注入
var (
	version   = readVersionFile(".version")
	buildDate = "1970-01-01T00:00:00Z"
	gitCommit = "internal"
)

type Version struct {
	AppName   string `json:"appName"`
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func GetVersion() Version {
	return Version{
		AppName:   AppName,
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (v Version) String() string {
	return fmt.Sprintf("%s %s (%s, %s, %s %s)", v.AppName, v.Version, v.GitCommit, v.BuildDate, v.GoVersion, v.Platform)
}

// readVersionFile 工作目录下的版本文件，缺失时为 dev
func readVersionFile(filename string) string {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(data))
}
