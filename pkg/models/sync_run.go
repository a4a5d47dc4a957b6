package models

import "time"

// 同步触发方式
const (
	TriggerManual = "manual"
	TriggerCron   = "cron"
	TriggerCLI    = "cli"
)

// SyncItemError 单条记录的同步失败
type SyncItemError struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// SyncRun 一次同步的执行记录
type SyncRun struct {
	RunID      string          `json:"runId" badgerhold:"key"`
	Trigger    string          `json:"trigger"`
	AppID      string          `json:"appId" badgerholdIndex:"AppID"`
	TableID    string          `json:"tableId"`
	Resource   string          `json:"resource"`
	Created    int             `json:"created"`
	Updated    int             `json:"updated"`
	Skipped    int             `json:"skipped"`
	Pages      int             `json:"pages"`
	Errors     []SyncItemError `json:"errors"`
	Fatal      string          `json:"fatal,omitempty"` // 读取源数据失败导致中止
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}

func (r *SyncRun) Succeeded() bool {
	return r.Fatal == ""
}

func (r *SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
