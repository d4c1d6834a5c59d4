package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/service"
)

type sessionScenario struct {
	t         *testing.T
	f         *fixture
	members   map[string]model.Member
	terminals map[string]model.Terminal
	packages  map[string]model.TimePackage
	session   model.Session
	err       error
}

func (s *sessionScenario) reset() {
	s.f = newFixture(s.t)
	s.members = map[string]model.Member{}
	s.terminals = map[string]model.Terminal{}
	s.packages = map[string]model.TimePackage{}
	s.session = model.Session{}
	s.err = nil
}

func (s *sessionScenario) aMemberWithBalance(name, balance string) error {
	s.members[name] = s.f.member(name, balance)
	return nil
}

func (s *sessionScenario) aTerminal(name string) error {
	s.terminals[name] = s.f.terminal(name)
	return nil
}

func (s *sessionScenario) aTimePackage(name string, minutes int, price string) error {
	p, err := s.f.store.Packages.Create(s.f.ctx, model.TimePackage{
		Name: name, DurationMinutes: minutes, Price: decimal.RequireFromString(price), IsActive: true,
	})
	s.packages[name] = p
	return err
}

func (s *sessionScenario) aWeekdayHappyHour(start, end string, pct int) error {
	_, err := s.f.hours.Create(s.f.ctx, model.HappyHour{
		Name: "Weekday", DaysOfWeek: []int{1, 2, 3, 4, 5}, StartTime: start, EndTime: end,
		DiscountPercent: pct, IsActive: true,
	})
	return err
}

func (s *sessionScenario) theTimeIsWednesday(hhmm string) error {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return err
	}
	s.f.now = time.Date(2024, 1, 3, clock.Hour(), clock.Minute(), 0, 0, time.UTC)
	return nil
}

func (s *sessionScenario) minutesPass(n int) error {
	s.f.now = s.f.now.Add(time.Duration(n) * time.Minute)
	return nil
}

func (s *sessionScenario) hoursPass(n int) error {
	s.f.now = s.f.now.Add(time.Duration(n) * time.Hour)
	return nil
}

func (s *sessionScenario) start(member, terminal string, pkg *string) error {
	in := service.StartInput{MemberID: s.members[member].ID, TerminalID: s.terminals[terminal].ID}
	if pkg != nil {
		p, ok := s.packages[*pkg]
		if !ok {
			return fmt.Errorf("unknown package %q", *pkg)
		}
		in.TimePackageID = &p.ID
	}
	sess, err := s.f.sessions.Start(s.f.ctx, in)
	if err == nil {
		s.session = sess
	}
	s.err = err
	return nil
}

func (s *sessionScenario) startsWithPackage(member, terminal, pkg string) error {
	return s.start(member, terminal, &pkg)
}

func (s *sessionScenario) startsOpen(member, terminal string) error {
	return s.start(member, terminal, nil)
}

func (s *sessionScenario) sessionEndedWithCost(cost string) error {
	c := decimal.RequireFromString(cost)
	sess, err := s.f.sessions.End(s.f.ctx, s.session.ID, &c)
	if err != nil {
		return err
	}
	s.session = sess
	return nil
}

func (s *sessionScenario) startFailsWith(msg string) error {
	if s.err == nil {
		return fmt.Errorf("expected start to fail with %q", msg)
	}
	if s.err.Error() != msg {
		return fmt.Errorf("expected %q, got %q", msg, s.err.Error())
	}
	return nil
}

func (s *sessionScenario) sessionCostIs(cost string) error {
	if s.err != nil {
		return s.err
	}
	if got := s.session.State.Cost().StringFixed(2); got != cost {
		return fmt.Errorf("session cost %s, want %s", got, cost)
	}
	return nil
}

func (s *sessionScenario) memberHasBalance(name, balance string) error {
	m, err := s.f.store.Members.GetByID(s.f.ctx, s.members[name].ID)
	if err != nil {
		return err
	}
	if got := m.Balance.StringFixed(2); got != balance {
		return fmt.Errorf("%s balance %s, want %s", name, got, balance)
	}
	return nil
}

func (s *sessionScenario) terminalIs(name, status string) error {
	t, err := s.f.store.Terminals.GetByID(s.f.ctx, s.terminals[name].ID)
	if err != nil {
		return err
	}
	if t.Status != status {
		return fmt.Errorf("terminal %s is %s, want %s", name, t.Status, status)
	}
	return nil
}

func (s *sessionScenario) memberHasNotifications(name string, n int, typ string) error {
	id := s.members[name].ID
	list, err := s.f.store.Notifications.List(s.f.ctx, &id)
	if err != nil {
		return err
	}
	count := 0
	for _, x := range list {
		if x.Type == typ {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("%s has %d %s notifications, want %d", name, count, typ, n)
	}
	return nil
}

func (s *sessionScenario) activityEntries(n int, typ string) error {
	list, err := s.f.store.Activity.List(s.f.ctx, 100)
	if err != nil {
		return err
	}
	count := 0
	for _, a := range list {
		if a.Type == typ {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("%d %s entries, want %d", count, typ, n)
	}
	return nil
}

func (s *sessionScenario) kioskShows(name string, secs int64) error {
	st, err := s.f.sessions.KioskStatus(s.f.ctx, s.terminals[name].ID)
	if err != nil {
		return err
	}
	if st.TimeRemaining != secs {
		return fmt.Errorf("kiosk shows %d seconds, want %d", st.TimeRemaining, secs)
	}
	return nil
}

func initializeSessionScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		sc := &sessionScenario{t: t}
		ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
			sc.reset()
			return c, nil
		})

		ctx.Step(`^a member "([^"]*)" with balance "([^"]*)"$`, sc.aMemberWithBalance)
		ctx.Step(`^a terminal "([^"]*)"$`, sc.aTerminal)
		ctx.Step(`^a time package "([^"]*)" of (\d+) minutes priced "([^"]*)"$`, sc.aTimePackage)
		ctx.Step(`^a weekday happy hour from "([^"]*)" to "([^"]*)" at (\d+) percent$`, sc.aWeekdayHappyHour)
		ctx.Step(`^the time is Wednesday "([^"]*)"$`, sc.theTimeIsWednesday)
		ctx.Step(`^(\d+) minutes pass$`, sc.minutesPass)
		ctx.Step(`^(\d+) hours pass$`, sc.hoursPass)

		ctx.Step(`^"([^"]*)" starts a session on "([^"]*)" with package "([^"]*)"$`, sc.startsWithPackage)
		ctx.Step(`^"([^"]*)" starts an open session on "([^"]*)"$`, sc.startsOpen)
		ctx.Step(`^the session is ended with cost "([^"]*)"$`, sc.sessionEndedWithCost)

		ctx.Step(`^the start fails with "([^"]*)"$`, sc.startFailsWith)
		ctx.Step(`^the session cost is "([^"]*)"$`, sc.sessionCostIs)
		ctx.Step(`^"([^"]*)" has balance "([^"]*)"$`, sc.memberHasBalance)
		ctx.Step(`^terminal "([^"]*)" is "([^"]*)"$`, sc.terminalIs)
		ctx.Step(`^"([^"]*)" has (\d+) "([^"]*)" notifications$`, sc.memberHasNotifications)
		ctx.Step(`^there (?:is|are) (\d+) "([^"]*)" activity entr(?:y|ies)$`, sc.activityEntries)
		ctx.Step(`^the kiosk on "([^"]*)" shows (\d+) seconds remaining$`, sc.kioskShows)
	}
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeSessionScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
