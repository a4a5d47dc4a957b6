package nsc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nkeys"
	"go.uber.org/zap"

	"mssql-openapi/pkg/models"
	"mssql-openapi/pkg/util"
)

// sender 发布消息的最小接口
type sender interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

type coreSender struct{ nc *nats.Conn }

func (s coreSender) Publish(_ context.Context, subject string, data []byte) error {
	return s.nc.Publish(subject, data)
}

type streamSender struct{ js jetstream.JetStream }

func (s streamSender) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := s.js.Publish(ctx, subject, data)
	return err
}

// SyncEvent 同步完成事件
type SyncEvent struct {
	Source string          `json:"source"`
	Run    *models.SyncRun `json:"run"`
}

// Publisher 将同步结果发布到 NATS
type Publisher struct {
	clientName string
	cfg        *NatsConfig
	nc         *nats.Conn
	out        sender
}

func NewPublisher(clientName string, config *NatsConfig) (*Publisher, error) {
	zap.S().Info("***初始化NATS")
	p := &Publisher{clientName: clientName, cfg: config}
	account, err := config.GetDefaultAccount()
	if err != nil {
		return nil, err
	}
	if err := p.Connect(account); err != nil {
		return nil, err
	}
	if config.StreamName != "" {
		js, err := jetstream.New(p.nc)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.out = streamSender{js: js}
	} else {
		p.out = coreSender{nc: p.nc}
	}
	return p, nil
}

func (p *Publisher) Connect(account *NatsAccount) error {
	if p.nc != nil {
		return nil
	}
	opt := nats.GetDefaultOptions()
	opt.Name = fmt.Sprintf("%s %s %s", util.GetVersion().AppName, util.GetVersion().Version, p.clientName)
	opt.User = account.UserName
	opt.Password = account.Password
	opt.Nkey = account.NKey
	opt.Url = p.cfg.Endpoint
	opt.NoCallbacksAfterClientClose = true
	opt.ReconnectWait = 2 * time.Second //重试等待2s
	opt.MaxReconnect = -1               //永远重试
	opt.AllowReconnect = true
	opt.ReconnectJitter = 500 * time.Millisecond
	opt.DisconnectedErrCB = func(conn *nats.Conn, err error) {
		if err != nil {
			zap.S().Debugf("*** 断开连接...%s ***", err.Error())
		}
	}
	opt.ReconnectedCB = func(conn *nats.Conn) {
		zap.S().Debugf("*** 已重连 ***")
	}
	opt.ConnectedCB = func(conn *nats.Conn) {
		zap.S().Debugf("*** NATS 已连接 ***")
	}
	if account.Seed != "" {
		opt.SignatureCB = seedSigner(account.Seed)
	}

	nc, err := opt.Connect()
	if err != nil {
		return err
	}
	nc.SetErrorHandler(func(conn *nats.Conn, sub *nats.Subscription, natsErr error) {
		if errors.Is(natsErr, nats.ErrSlowConsumer) && sub != nil {
			pms, _, pmsErr := sub.Pending()
			if pmsErr == nil {
				zap.S().Errorf("Falling behind with %d pending messages on subject %q.", pms, sub.Subject)
				return
			}
		}
		zap.S().Errorf("Nats 捕获错误: %v", natsErr)
	})
	p.nc = nc
	return nil
}

// seedSigner 用 nkey 种子对服务端 nonce 签名
func seedSigner(seed string) nats.SignatureHandler {
	return func(b []byte) ([]byte, error) {
		sk, err := nkeys.FromSeed(util.StringToBytes(seed))
		if err != nil {
			return nil, err
		}
		return sk.Sign(b)
	}
}

// Publish 编码并发布同步事件
func (p *Publisher) Publish(ctx context.Context, run *models.SyncRun) error {
	data, err := json.Marshal(SyncEvent{Source: p.clientName, Run: run})
	if err != nil {
		return err
	}
	return p.out.Publish(ctx, p.cfg.SubjectName, data)
}

// SyncFinished 同步结束回调，发布失败只记录日志
func (p *Publisher) SyncFinished(ctx context.Context, run *models.SyncRun) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, run); err != nil {
		zap.S().Errorf("发布同步事件 %s 失败: %v", run.RunID, err)
	}
}

func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
		zap.S().Debugf("*** NATS 已经关闭 ***")
	}
}
