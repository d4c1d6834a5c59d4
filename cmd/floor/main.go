// Command floor is the operator's read-only wall of terminals: who sits
// where, their balance and how much package time is left. It reads the
// same database as the API server and redraws every few seconds.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/config"
	"github.com/iliyamo/gamecafe-session-engine/internal/database"
	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
	"github.com/iliyamo/gamecafe-session-engine/internal/service"
)

const refreshEvery = 3 * time.Second

type floor struct {
	log      *zap.Logger
	store    *repository.Store
	sessions *service.Sessions
	app      *tview.Application
	table    *tview.Table
	status   *tview.TextView
}

// newLogger writes JSON lines to dir/floor.log; the terminal belongs to
// the TUI.
func newLogger(dir string) (*zap.Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "floor.log")
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	return zc.Build()
}

func main() {
	cfg := config.Load()
	logger, err := newLogger(cfg.EventLogDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "floor: logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	store := repository.NewStore(db)
	clock := pricing.SystemClock
	deps := service.Deps{
		Store:   store,
		Pricing: pricing.NewCalculator(store.HappyHours, clock),
		Logger:  logger,
		Clock:   clock,
	}

	app := tview.NewApplication()
	f := &floor{
		log:      logger.Named("floor"),
		store:    store,
		sessions: service.NewSessions(deps, cfg.HourlyRate),
		app:      app,
		table:    tview.NewTable().SetBorders(false).SetSelectable(true, false).SetFixed(1, 0),
		status:   tview.NewTextView().SetTextAlign(tview.AlignCenter).SetTextColor(tcell.ColorYellow),
	}
	f.table.SetBorder(true).SetTitle(" TERMINALS ").SetBorderAttributes(tcell.AttrBold).SetBorderPadding(0, 0, 1, 1)
	f.table.SetSelectedStyle(tcell.StyleDefault.Background(tcell.ColorNone).Foreground(tcell.ColorGreen))

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape, event.Rune() == 'q':
			app.Stop()
			return nil
		case event.Rune() == 'r':
			go f.refresh()
			return nil
		}
		return event
	})

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(f.table, 0, 1, true).
		AddItem(f.status, 1, 1, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.poll(ctx)

	logger.Info("floor started", zap.String("driver", cfg.DBDriver))
	if err := app.SetRoot(root, true).Run(); err != nil {
		logger.Fatal("tui", zap.Error(err))
	}
}

func (f *floor) poll(ctx context.Context) {
	f.refresh()
	t := time.NewTicker(refreshEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			f.refresh()
		}
	}
}

// row is one rendered line of the wall.
type row struct {
	name, status, member, tier, balance, remaining, game string
	color                                                 tcell.Color
}

func (f *floor) load(ctx context.Context) ([]row, error) {
	terminals, err := f.store.Terminals.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]row, 0, len(terminals))
	for _, t := range terminals {
		r := row{name: t.Name, status: t.Status, member: "-", tier: "-", balance: "-", remaining: "-", game: "-"}
		if t.CurrentGame != nil {
			r.game = *t.CurrentGame
		}
		switch t.Status {
		case model.TerminalAvailable:
			r.color = tcell.ColorGreen
		case model.TerminalOccupied:
			r.color = tcell.ColorYellow
		default:
			r.color = tcell.ColorGray
		}
		k, err := f.sessions.KioskStatus(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if k.Active {
			r.member = k.Username
			r.tier = k.MemberTier
			r.balance = k.Balance.StringFixed(2)
			r.remaining = formatRemaining(k.TimeRemaining)
			if k.TimeRemaining == 0 {
				r.color = tcell.ColorRed
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (f *floor) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rows, err := f.load(ctx)
	if err != nil {
		f.log.Warn("refresh failed", zap.Error(err))
	}

	f.app.QueueUpdateDraw(func() {
		if err != nil {
			f.status.SetText(fmt.Sprintf(" refresh failed: %v ", err))
			return
		}
		f.table.Clear()
		for col, h := range []string{"TERMINAL", "STATUS", "MEMBER", "TIER", "BALANCE", "LEFT", "GAME"} {
			f.table.SetCell(0, col, tview.NewTableCell(h).SetTextColor(tcell.ColorYellow).SetAttributes(tcell.AttrBold).SetSelectable(false))
		}
		occupied := 0
		for i, r := range rows {
			for col, v := range []string{r.name, r.status, r.member, r.tier, r.balance, r.remaining, r.game} {
				f.table.SetCell(i+1, col, tview.NewTableCell(v).SetTextColor(r.color).SetExpansion(1))
			}
			if r.member != "-" {
				occupied++
			}
		}
		if len(rows) == 0 {
			f.table.SetCell(1, 0, tview.NewTableCell("No terminals configured.").SetTextColor(tcell.ColorGray))
		}
		f.status.SetText(fmt.Sprintf(" %d/%d in use | updated %s | [R] Refresh | [ESC] Exit ",
			occupied, len(rows), time.Now().Format("15:04:05")))
	})
}

// formatRemaining renders seconds as H:MM:SS.
func formatRemaining(secs int64) string {
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
