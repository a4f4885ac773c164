// Package telegram adapts the transport contracts onto the Telegram Bot API
// via telebot. The Adapter sends; the Fetcher downloads file content through
// a separate helper-bot credential.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

type Config struct {
	Token string
	// ClientTimeout bounds a single Bot API round-trip (send or download).
	ClientTimeout time.Duration
}

type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.ClientTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// Send-only client: no poller, updates are never consumed.
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

// SendMedia delivers one photo + caption to a recipient. The returned
// SendResult carries the file_id Telegram reports for the stored photo,
// so a fresh reference can be harvested from any successful send.
func (a *Adapter) SendMedia(ctx context.Context, to transport.Recipient, media transport.MediaRef, caption string) (transport.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return transport.SendResult{}, err
	}

	photo := &tele.Photo{Caption: caption}
	switch media.Kind() {
	case transport.MediaRemoteURL:
		photo.File = tele.FromURL(media.URL())
	case transport.MediaFileRef:
		photo.File = tele.File{FileID: media.FileRef()}
	case transport.MediaBytes:
		photo.File = tele.FromReader(bytes.NewReader(media.Data()))
		photo.FileLocal = media.Name()
	default:
		return transport.SendResult{}, &transport.SendError{Description: "media payload is not configured"}
	}

	msg, err := a.bot.Send(tele.ChatID(to), photo)
	if err != nil {
		return transport.SendResult{}, wrapTeleError(err)
	}

	res := transport.SendResult{}
	if msg != nil && msg.Photo != nil {
		res.FileRef = msg.Photo.FileID
	}
	return res, nil
}

// Fetcher downloads file content by file_id through the helper bot. A
// file_id is scoped to the bot that first saw the file, so the helper
// credential must be the one the reference was issued to.
type Fetcher struct {
	log logx.Logger
	bot *tele.Bot
}

func NewFetcher(cfg Config, log logx.Logger) (*Fetcher, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("helper token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.ClientTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Fetcher{log: log, bot: b}, nil
}

func (f *Fetcher) FetchBytes(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	rc, err := f.bot.File(&tele.File{FileID: ref})
	if err != nil {
		return nil, wrapTeleError(err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	f.log.Debug("media bytes fetched", logx.Int("size", len(b)), logx.Duration("took", time.Since(start)))
	return b, nil
}

// wrapTeleError normalizes telebot failures into transport.SendError so the
// classifier sees (code, description) pairs regardless of which error shape
// telebot produced. Unknown shapes keep their text with code 0.
func wrapTeleError(err error) error {
	// FloodError keeps its inner API error unexported and has no Unwrap,
	// so rebuild the 429 from the retry window it does export.
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return &transport.SendError{
			Code:        429,
			Description: fmt.Sprintf("Too Many Requests: retry after %d", flood.RetryAfter),
		}
	}
	var te *tele.Error
	if errors.As(err, &te) {
		return &transport.SendError{Code: te.Code, Description: te.Description}
	}
	return &transport.SendError{Description: err.Error()}
}
