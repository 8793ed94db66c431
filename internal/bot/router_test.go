package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/telegrab/telegrab/internal/broadcast"
	"github.com/telegrab/telegrab/internal/download"
	"github.com/telegrab/telegrab/internal/model"
)

type sentText struct {
	recipient int64
	text      string
}

type fakeRouterSender struct {
	texts    []sentText
	failFor  int64
	failWith error
}

func (f *fakeRouterSender) SendText(_ context.Context, id int64, text string) error {
	if f.failWith != nil && id == f.failFor {
		return f.failWith
	}
	f.texts = append(f.texts, sentText{recipient: id, text: text})
	return nil
}

func (f *fakeRouterSender) SendDocument(_ context.Context, id int64, path, caption string) error {
	return nil
}

func (f *fakeRouterSender) lastTo(id int64) string {
	for i := len(f.texts) - 1; i >= 0; i-- {
		if f.texts[i].recipient == id {
			return f.texts[i].text
		}
	}
	return ""
}

type fakeStateAdmin struct {
	state    *model.State
	saveErr  error
	banned   []int64
	unbanned []int64
	promoted []int64
	added    []int64
}

func newFakeStateAdmin(operator int64) *fakeStateAdmin {
	return &fakeStateAdmin{state: model.NewState(operator)}
}

func (f *fakeStateAdmin) Snapshot() *model.State { return f.state.Clone() }

func (f *fakeStateAdmin) AddUser(id int64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.state.Users[id] = struct{}{}
	f.added = append(f.added, id)
	return nil
}

func (f *fakeStateAdmin) Ban(id int64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.state.Banned[id] = struct{}{}
	f.banned = append(f.banned, id)
	return nil
}

func (f *fakeStateAdmin) Unban(id int64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	delete(f.state.Banned, id)
	f.unbanned = append(f.unbanned, id)
	return nil
}

func (f *fakeStateAdmin) AddAdmin(id int64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.state.Admins[id] = struct{}{}
	f.promoted = append(f.promoted, id)
	return nil
}

func (f *fakeStateAdmin) Stats() model.Stats { return f.state.Summarize() }

type fakeOrchestrator struct {
	urls []string
}

func (f *fakeOrchestrator) HandleLink(_ context.Context, requester int64, url string) *download.Job {
	f.urls = append(f.urls, url)
	return &download.Job{ID: "job-1", Requester: requester, URL: url, Status: model.JobStatusDone}
}

type fakeBroadcaster struct {
	recipients []int64
	text       string
	result     broadcast.Result
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, recipients []int64, text string) broadcast.Result {
	f.recipients = recipients
	f.text = text
	return f.result
}

func newTestRouter(state *fakeStateAdmin) (*Router, *fakeRouterSender, *fakeOrchestrator, *fakeBroadcaster) {
	sender := &fakeRouterSender{}
	orch := &fakeOrchestrator{}
	disp := &fakeBroadcaster{}
	return NewRouter(sender, state, orch, disp, zap.NewNop()), sender, orch, disp
}

const (
	operatorID = int64(1)
	userID     = int64(2)
	otherID    = int64(3)
)

func TestRouterLinkDelegation(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	router, _, orch, _ := newTestRouter(state)

	router.HandleLink(context.Background(), userID, "https://youtu.be/abc")

	if len(orch.urls) != 1 || orch.urls[0] != "https://youtu.be/abc" {
		t.Fatalf("Expected one delegated link, got %v", orch.urls)
	}
}

func TestRouterStartRegistersUser(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	router, sender, _, _ := newTestRouter(state)

	router.HandleDirective(context.Background(), userID, "/start")

	if len(state.added) != 1 || state.added[0] != userID {
		t.Fatalf("Expected user %d registered, got %v", userID, state.added)
	}
	reply := sender.lastTo(userID)
	if !strings.Contains(reply, "/help") {
		t.Errorf("Expected welcome to list public commands, got %q", reply)
	}
	if strings.Contains(reply, "/ban") {
		t.Errorf("Expected no admin commands for ordinary user, got %q", reply)
	}
}

func TestRouterStartShowsAdminCommands(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	router, sender, _, _ := newTestRouter(state)

	router.HandleDirective(context.Background(), operatorID, "/start")

	reply := sender.lastTo(operatorID)
	if !strings.Contains(reply, "/everyone") {
		t.Errorf("Expected admin command list for operator, got %q", reply)
	}
}

func TestRouterNonAdminDenied(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	router, sender, _, _ := newTestRouter(state)

	router.HandleDirective(context.Background(), userID, "/ban 3")

	if len(state.banned) != 0 {
		t.Fatalf("Expected no ban applied, got %v", state.banned)
	}
	if got := sender.lastTo(userID); got != msgNoPermission {
		t.Errorf("Expected permission denial, got %q", got)
	}
}

func TestRouterBannedDenied(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	state.state.Banned[userID] = struct{}{}
	router, sender, _, _ := newTestRouter(state)

	router.HandleDirective(context.Background(), userID, "/start")

	if len(state.added) != 0 {
		t.Fatalf("Expected no registration for banned identity, got %v", state.added)
	}
	if got := sender.lastTo(userID); got != msgBanned {
		t.Errorf("Expected ban refusal, got %q", got)
	}
}

func TestRouterBanUnbanNewAdmin(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	router, sender, _, _ := newTestRouter(state)
	ctx := context.Background()

	router.HandleDirective(ctx, operatorID, "/ban 3")
	if len(state.banned) != 1 || state.banned[0] != otherID {
		t.Fatalf("Expected ban of %d, got %v", otherID, state.banned)
	}
	if got := sender.lastTo(operatorID); !strings.Contains(got, "banned") {
		t.Errorf("Expected ban confirmation, got %q", got)
	}

	router.HandleDirective(ctx, operatorID, "/unban 3")
	if len(state.unbanned) != 1 || state.unbanned[0] != otherID {
		t.Fatalf("Expected unban of %d, got %v", otherID, state.unbanned)
	}

	router.HandleDirective(ctx, operatorID, "/newadmin 3")
	if len(state.promoted) != 1 || state.promoted[0] != otherID {
		t.Fatalf("Expected promotion of %d, got %v", otherID, state.promoted)
	}
}

func TestRouterUsageReply(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	router, sender, _, _ := newTestRouter(state)

	router.HandleDirective(context.Background(), operatorID, "/ban notanumber")

	if got := sender.lastTo(operatorID); !strings.Contains(got, usageBan) {
		t.Errorf("Expected usage line %q in reply, got %q", usageBan, got)
	}
	if len(state.banned) != 0 {
		t.Errorf("Expected no mutation on malformed directive, got %v", state.banned)
	}
}

func TestRouterStats(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	state.state.Users[userID] = struct{}{}
	state.state.Downloads[userID] = []model.DownloadRecord{{File: "a.mp4"}, {File: "a.m4a"}}
	router, sender, _, _ := newTestRouter(state)

	router.HandleDirective(context.Background(), operatorID, "/stats")

	reply := sender.lastTo(operatorID)
	if !strings.Contains(reply, "Users: 1") || !strings.Contains(reply, "Downloads: 2") {
		t.Errorf("Expected counts in stats reply, got %q", reply)
	}
}

func TestRouterWarn(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	router, sender, _, _ := newTestRouter(state)

	router.HandleDirective(context.Background(), operatorID, "/warn 2 last chance")

	if got := sender.lastTo(userID); got != "⚠️ Warning: last chance" {
		t.Errorf("Expected warning delivered to target, got %q", got)
	}
	if got := sender.lastTo(operatorID); !strings.Contains(got, "Warning sent") {
		t.Errorf("Expected confirmation to admin, got %q", got)
	}
}

func TestRouterWarnDeliveryFailure(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	router, sender, _, _ := newTestRouter(state)
	sender.failFor = userID
	sender.failWith = errors.New("blocked by user")

	router.HandleDirective(context.Background(), operatorID, "/warn 2 last chance")

	if got := sender.lastTo(operatorID); !strings.Contains(got, "Could not deliver") {
		t.Errorf("Expected delivery failure report, got %q", got)
	}
}

func TestRouterBroadcast(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	state.state.Users[userID] = struct{}{}
	state.state.Users[otherID] = struct{}{}
	router, sender, _, disp := newTestRouter(state)
	disp.result = broadcast.Result{Delivered: 2, Total: 2}

	router.HandleDirective(context.Background(), operatorID, "/everyone new build is out")

	if len(disp.recipients) != 2 {
		t.Fatalf("Expected 2 recipients, got %v", disp.recipients)
	}
	if !strings.HasPrefix(disp.text, "📢 Announcement:\n") || !strings.Contains(disp.text, "new build is out") {
		t.Errorf("Expected framed announcement, got %q", disp.text)
	}
	if got := sender.lastTo(operatorID); !strings.Contains(got, "Delivered to 2 of 2") {
		t.Errorf("Expected delivery summary, got %q", got)
	}
}

func TestRouterMutationFailure(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	state.saveErr = errors.New("disk full")
	router, sender, _, _ := newTestRouter(state)

	router.HandleDirective(context.Background(), operatorID, "/ban 3")

	if got := sender.lastTo(operatorID); got != msgStateTrouble {
		t.Errorf("Expected state trouble reply, got %q", got)
	}
}

func TestRouterIgnoresPlainText(t *testing.T) {
	state := newFakeStateAdmin(operatorID)
	router, sender, orch, _ := newTestRouter(state)

	router.HandleDirective(context.Background(), userID, "hello bot")

	if len(sender.texts) != 0 || len(orch.urls) != 0 {
		t.Errorf("Expected plain text ignored, got replies=%v links=%v", sender.texts, orch.urls)
	}
}
