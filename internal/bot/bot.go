// Package bot wires the connection, the protocol pipeline and the battle
// translator into a running client.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/showdown-battle-bot/internal/battle"
	"github.com/park285/showdown-battle-bot/internal/config"
	"github.com/park285/showdown-battle-bot/internal/dex"
	"github.com/park285/showdown-battle-bot/internal/domain"
	"github.com/park285/showdown-battle-bot/internal/psclient"
	"github.com/park285/showdown-battle-bot/internal/psproto"
	"github.com/park285/showdown-battle-bot/internal/record"
	"github.com/park285/showdown-battle-bot/internal/teamcat"
)

// Bot is one logged-in client. It demultiplexes chunks into per-room
// translators and forwards domain events to the handler.
type Bot struct {
	cfg     *config.AppConfig
	sock    *psclient.Socket
	login   *psclient.LoginClient
	teams   *teamcat.Catalog
	records *record.Store
	handler domain.Handler
	chooser Chooser
	log     *zap.Logger

	mu      sync.Mutex
	battles map[string]*battleRoom
	named   bool
}

type battleRoom struct {
	translator *battle.Translator
	opponent   string
}

// Option configures a Bot.
type Option func(*Bot)

// WithRecords attaches a battle record store.
func WithRecords(s *record.Store) Option {
	return func(b *Bot) { b.records = s }
}

// WithHandler attaches the domain event sink.
func WithHandler(h domain.Handler) Option {
	return func(b *Bot) { b.handler = h }
}

// WithChooser replaces the default request chooser.
func WithChooser(c Chooser) Option {
	return func(b *Bot) { b.chooser = c }
}

// New builds a bot from the configuration.
func New(cfg *config.AppConfig, teams *teamcat.Catalog, log *zap.Logger, opts ...Option) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bot{
		cfg:     cfg,
		sock:    psclient.NewSocket(cfg.WSURL, cfg.MaxReconnectAttempts, cfg.ReconnectDelay),
		login:   psclient.NewLoginClient(cfg.LoginURL),
		teams:   teams,
		chooser: DefaultChooser,
		log:     log,
		battles: make(map[string]*battleRoom),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run connects and processes chunks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.sock.OnStateChange(func(state psclient.ConnState) {
		b.log.Info("connection state", zap.Stringer("state", state))
	})
	b.sock.OnChunk(func(chunk string) { b.handleChunk(ctx, chunk) })

	if err := b.sock.Connect(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.sock.Close(closeCtx)
}

func (b *Bot) handleChunk(ctx context.Context, chunk string) {
	room, msgs := psproto.ParseChunk(chunk, b.log)
	for _, msg := range msgs {
		b.handleMessage(ctx, room, msg)
	}
}

func (b *Bot) handleMessage(ctx context.Context, room string, msg psproto.Message) {
	switch m := msg.(type) {
	case psproto.ChallStr:
		go b.authenticate(ctx, m)
	case psproto.UpdateUser:
		b.onUpdateUser(ctx, m)
	case psproto.UpdateChallenges:
		b.onChallenges(ctx, m)
	case psproto.InitRoom:
		if m.Type == "battle" {
			b.startBattle(ctx, room)
		}
	case psproto.DeinitRoom:
		b.mu.Lock()
		delete(b.battles, room)
		b.mu.Unlock()
	case psproto.ErrorMessage:
		b.log.Warn("server error", zap.String("room", room), zap.String("reason", m.Reason))
	case *psproto.Request, psproto.BattleInit, psproto.BattleProgress:
		b.routeBattle(ctx, room, msg)
	}
}

func (b *Bot) authenticate(ctx context.Context, c psproto.ChallStr) {
	assertion, err := b.login.Assert(b.cfg.Username, b.cfg.Password, c.KeyID, c.Challenge)
	if err != nil {
		b.log.Error("login failed", zap.Error(err))
		return
	}
	if err := b.send(ctx, "", psclient.TrnCommand(b.cfg.Username, assertion)); err != nil {
		b.log.Error("trn failed", zap.Error(err))
	}
}

func (b *Bot) onUpdateUser(ctx context.Context, u psproto.UpdateUser) {
	if !u.Named || dex.ToID(u.Username) != dex.ToID(b.cfg.Username) {
		return
	}
	b.mu.Lock()
	first := !b.named
	b.named = true
	b.mu.Unlock()
	if !first {
		return
	}
	b.log.Info("logged in", zap.String("username", u.Username))
	if b.cfg.Avatar != "" {
		_ = b.send(ctx, "", "/avatar "+b.cfg.Avatar)
	}
	b.search(ctx)
}

// search queues for a ladder battle, uploading a catalog team first when the
// format needs one.
func (b *Bot) search(ctx context.Context) {
	format := b.cfg.Format
	team, err := b.teams.Pick(format)
	switch {
	case err == nil:
		if err := b.send(ctx, "", "/utm "+team.Packed); err != nil {
			b.log.Error("team upload failed", zap.Error(err))
			return
		}
		b.log.Info("team selected", zap.String("format", format), zap.String("team", team.Name))
	case errors.Is(err, teamcat.ErrNoTeam):
		// Random formats build their own team server-side.
	default:
		b.log.Error("team pick failed", zap.Error(err))
		return
	}
	if err := b.send(ctx, "", "/search "+format); err != nil {
		b.log.Error("search failed", zap.Error(err))
	}
}

func (b *Bot) onChallenges(ctx context.Context, u psproto.UpdateChallenges) {
	for from, format := range u.ChallengesFrom {
		if format != b.cfg.Format {
			b.log.Info("rejecting challenge",
				zap.String("from", from), zap.String("format", format))
			_ = b.send(ctx, "", "/reject "+from)
			continue
		}
		if team, err := b.teams.Pick(format); err == nil {
			if err := b.send(ctx, "", "/utm "+team.Packed); err != nil {
				b.log.Error("team upload failed", zap.Error(err))
				continue
			}
		}
		_ = b.send(ctx, "", "/accept "+from)
	}
}

func (b *Bot) startBattle(ctx context.Context, room string) {
	b.mu.Lock()
	if _, ok := b.battles[room]; ok {
		b.mu.Unlock()
		return
	}
	b.battles[room] = &battleRoom{translator: battle.New(b.cfg.Username, b.log)}
	b.mu.Unlock()

	b.log.Info("battle started", zap.String("room", room))
	_ = b.send(ctx, room, "/timer on")
	if b.records != nil {
		if _, err := b.records.Start(ctx, room, b.cfg.Format, ""); err != nil {
			b.log.Warn("record start failed", zap.Error(err))
		}
	}
}

func (b *Bot) routeBattle(ctx context.Context, room string, msg psproto.Message) {
	b.mu.Lock()
	br, ok := b.battles[room]
	if !ok {
		// A battle room can start streaming before the init message wins
		// the race; register it on first traffic.
		br = &battleRoom{translator: battle.New(b.cfg.Username, b.log)}
		b.battles[room] = br
	}
	b.mu.Unlock()

	if init, ok := msg.(psproto.BattleInit); ok {
		br.opponent = b.opponentName(init)
	}

	events, err := br.translator.HandleMessage(msg)
	if err != nil {
		b.log.Error("translation failed", zap.String("room", room), zap.Error(err))
		return
	}
	for _, ev := range events {
		b.dispatch(ctx, room, ev)
	}

	if req, ok := msg.(*psproto.Request); ok && b.chooser != nil {
		if choice, due := b.chooser(req); due {
			if err := b.Choose(ctx, room, choice); err != nil {
				b.log.Error("choice failed", zap.String("room", room), zap.Error(err))
			}
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, room string, ev domain.Event) {
	switch e := ev.(type) {
	case domain.TurnEnd:
		if b.records != nil {
			if err := b.records.Turn(ctx, room); err != nil {
				b.log.Warn("record turn failed", zap.Error(err))
			}
		}
	case domain.GameOver:
		b.finishBattle(ctx, room, e)
	}
	if b.handler != nil {
		if err := b.handler.HandleEvent(ev); err != nil {
			b.log.Error("handler failed", zap.String("room", room), zap.Error(err))
		}
	}
}

func (b *Bot) finishBattle(ctx context.Context, room string, over domain.GameOver) {
	outcome := record.OutcomeLoss
	switch {
	case over.Tie:
		outcome = record.OutcomeTie
	case over.Winner == domain.SideUs:
		outcome = record.OutcomeWin
	}
	b.log.Info("battle finished", zap.String("room", room), zap.String("outcome", string(outcome)))

	if b.records != nil {
		if _, err := b.records.Finish(ctx, room, outcome); err != nil {
			b.log.Warn("record finish failed", zap.Error(err))
		}
	}
	_ = b.send(ctx, room, "/leave")
}

// Choose sends a decision for the active request: e.g. "move 1" or
// "switch 2".
func (b *Bot) Choose(ctx context.Context, room, choice string) error {
	return b.send(ctx, room, "/choose "+choice)
}

func (b *Bot) opponentName(init psproto.BattleInit) string {
	me := dex.ToID(b.cfg.Username)
	for _, name := range init.Players {
		if dex.ToID(name) != me {
			return name
		}
	}
	return ""
}

func (b *Bot) send(ctx context.Context, room, text string) error {
	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := b.sock.Send(sctx, room, text); err != nil {
		return fmt.Errorf("bot: send %q: %w", strings.Fields(text)[0], err)
	}
	return nil
}
