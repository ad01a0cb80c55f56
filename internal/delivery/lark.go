package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/oakrise/docstamp/pkg/utils"
)

// LarkConfig holds Lark application credentials.
type LarkConfig struct {
	AppID     string
	AppSecret string
}

// LarkDeliverer sends generated documents as email-style post messages
// through the Lark messaging API.
type LarkDeliverer struct {
	client *lark.Client
	logger *zap.Logger
}

// NewLarkDeliverer creates a Lark-backed deliverer.
func NewLarkDeliverer(cfg LarkConfig, logger *zap.Logger) *LarkDeliverer {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return &LarkDeliverer{
		client: client,
		logger: logger,
	}
}

// Deliver sends the message to the recipient's email address. CC and BCC
// recipients receive their own copy; a cc/bcc failure is reported but does
// not undo the primary delivery.
func (d *LarkDeliverer) Deliver(ctx context.Context, msg Message) error {
	if err := ValidateRecipient(msg.Recipient); err != nil {
		return err
	}
	if err := utils.ValidateEmail(msg.Recipient); err != nil {
		return fmt.Errorf("cannot deliver: %w", err)
	}

	content, err := postContent(msg)
	if err != nil {
		return fmt.Errorf("failed to build message content: %w", err)
	}

	if err := d.send(ctx, msg.Recipient, content); err != nil {
		return err
	}

	for _, cc := range append(append([]string{}, msg.CC...), msg.BCC...) {
		if strings.TrimSpace(cc) == "" {
			continue
		}
		if err := d.send(ctx, cc, content); err != nil {
			d.logger.Warn("Failed to deliver copy",
				zap.String("recipient", cc),
				zap.Error(err))
		}
	}

	d.logger.Info("Document delivered",
		zap.String("recipient", msg.Recipient),
		zap.String("file", msg.File.ID))
	return nil
}

// send posts one email-style message through the Lark IM API.
func (d *LarkDeliverer) send(ctx context.Context, recipient, content string) error {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("email").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(recipient).
			MsgType("post").
			Content(content).
			Build()).
		Build()

	resp, err := d.client.Im.Message.Create(ctx, req)
	if err != nil {
		d.logger.Error("Failed to send message",
			zap.String("recipient", recipient),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		d.logger.Error("Messaging API returned failure",
			zap.String("recipient", recipient),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("messaging API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}
	return nil
}

// postContent builds the Lark post-message payload: subject as title, body
// text, then the generated file's name so the recipient can locate it.
func postContent(msg Message) (string, error) {
	body := msg.Body
	if msg.File.Path != "" {
		body += "\n\nAttachment: " + filepath.Base(msg.File.Path)
	}

	payload := map[string]any{
		"zh_cn": map[string]any{
			"title": msg.Subject,
			"content": [][]map[string]string{
				{{"tag": "text", "text": body}},
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
