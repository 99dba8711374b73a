package feedback

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stuurlui/compass/internal/blockkit"
	"github.com/stuurlui/compass/internal/float"
	"github.com/stuurlui/compass/internal/slackapi"
)

type fakeSlack struct {
	members   []slackapi.Member
	byEmail   map[string]slackapi.Member
	blockMsgs []blockMsg
	textMsgs  []textMsg
}

type blockMsg struct {
	ChannelID string
	Blocks    []blockkit.Block
}

type textMsg struct {
	ChannelID string
	Text      string
	ThreadTS  string
}

func (f *fakeSlack) ListMembers(ctx context.Context) ([]slackapi.Member, error) {
	return f.members, nil
}

func (f *fakeSlack) LookupMemberByEmail(ctx context.Context, email string) (slackapi.Member, error) {
	member, ok := f.byEmail[email]
	if !ok {
		return slackapi.Member{}, fmt.Errorf("users.lookupByEmail: users_not_found")
	}
	return member, nil
}

func (f *fakeSlack) PostBlocks(ctx context.Context, channelID, text, threadTS string, blocks []blockkit.Block) error {
	f.blockMsgs = append(f.blockMsgs, blockMsg{ChannelID: channelID, Blocks: blocks})
	return nil
}

func (f *fakeSlack) PostMessage(ctx context.Context, channelID, text, threadTS string) error {
	f.textMsgs = append(f.textMsgs, textMsg{ChannelID: channelID, Text: text, ThreadTS: threadTS})
	return nil
}

type fakeSchedule struct {
	people   []float.Person
	tasks    map[int64][]float.Task
	projects map[int64]float.Project
	taskByID map[int64]float.Task
	accounts map[int64]float.Account
}

func (f *fakeSchedule) People(ctx context.Context) ([]float.Person, error) {
	return f.people, nil
}

func (f *fakeSchedule) TasksForToday(ctx context.Context, personID int64) ([]float.Task, error) {
	return f.tasks[personID], nil
}

func (f *fakeSchedule) ProjectByID(ctx context.Context, projectID int64) (float.Project, error) {
	project, ok := f.projects[projectID]
	if !ok {
		return float.Project{}, fmt.Errorf("project %d not found", projectID)
	}
	return project, nil
}

func (f *fakeSchedule) TaskByID(ctx context.Context, taskID int64) (float.Task, error) {
	return f.taskByID[taskID], nil
}

func (f *fakeSchedule) AccountByID(ctx context.Context, accountID int64) (float.Account, error) {
	account, ok := f.accounts[accountID]
	if !ok {
		return float.Account{}, fmt.Errorf("account %d not found", accountID)
	}
	return account, nil
}

func member(id, email string) slackapi.Member {
	var m slackapi.Member
	m.ID = id
	m.Profile.Email = email
	return m
}

func testSchedule() *fakeSchedule {
	return &fakeSchedule{
		people: []float.Person{
			{PeopleID: 41, Name: "Anna", Email: "anna@example.com"},
			{PeopleID: 42, Name: "Bram", Email: "bram@example.com"},
		},
		tasks: map[int64][]float.Task{
			41: {{TaskID: 9, ProjectID: 12, Hours: 6}},
		},
		projects: map[int64]float.Project{
			12: {ProjectID: 12, Name: "Webshop relaunch", ProjectManager: 3},
		},
		taskByID: map[int64]float.Task{
			9: {TaskID: 9, Name: "Sprint werk"},
		},
		accounts: map[int64]float.Account{
			3: {AccountID: 3, Name: "Petra", Email: "petra@example.com"},
		},
	}
}

func TestRunSendsCheckInOnlyToScheduledMembers(t *testing.T) {
	slack := &fakeSlack{
		members: []slackapi.Member{
			member("U1", "anna@example.com"),
			member("U2", "bram@example.com"),
			member("U3", "geen-float@example.com"),
		},
	}
	c, err := NewCollector(slack, testSchedule(), Config{}, nil)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	// Bram has no tasks today and U3 has no Float account.
	if len(slack.blockMsgs) != 1 {
		t.Fatalf("check-ins = %d, want 1", len(slack.blockMsgs))
	}
	if slack.blockMsgs[0].ChannelID != "U1" {
		t.Fatalf("check-in sent to %q, want U1", slack.blockMsgs[0].ChannelID)
	}

	var foundInput bool
	for _, block := range slack.blockMsgs[0].Blocks {
		if block.BlockID == "feedback_12" {
			foundInput = true
			if block.Label == nil || !strings.Contains(block.Label.Text, "Petra") {
				t.Fatalf("input label = %+v", block.Label)
			}
		}
	}
	if !foundInput {
		t.Fatalf("feedback input missing: %+v", slack.blockMsgs[0].Blocks)
	}
}

func TestRunSkipsBotsAndDeleted(t *testing.T) {
	bot := member("U9", "anna@example.com")
	bot.IsBot = true
	gone := member("U8", "anna@example.com")
	gone.Deleted = true

	slack := &fakeSlack{members: []slackapi.Member{bot, gone}}
	c, _ := NewCollector(slack, testSchedule(), Config{}, nil)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(slack.blockMsgs) != 0 {
		t.Fatalf("check-ins = %d, want 0", len(slack.blockMsgs))
	}
}

func TestRunDevelopmentOnlyPingsDeveloper(t *testing.T) {
	slack := &fakeSlack{
		members: []slackapi.Member{
			member("U1", "dev@example.com"),
			member("U2", "bram@example.com"),
		},
	}
	schedule := testSchedule()
	c, _ := NewCollector(slack, schedule, Config{
		Development:         true,
		DeveloperSlackEmail: "dev@example.com",
		DeveloperFloatEmail: "anna@example.com",
	}, nil)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(slack.blockMsgs) != 1 || slack.blockMsgs[0].ChannelID != "U1" {
		t.Fatalf("check-ins = %+v", slack.blockMsgs)
	}
}

func TestDeliverForwardsToManager(t *testing.T) {
	slack := &fakeSlack{
		byEmail: map[string]slackapi.Member{
			"petra@example.com": member("U7", "petra@example.com"),
		},
	}
	c, _ := NewCollector(slack, testSchedule(), Config{}, nil)

	err := c.Deliver(context.Background(), Submission{
		ProjectID: 12,
		Feedback:  "Ging goed, iets uitgelopen.",
		UserID:    "U1",
		ChannelID: "U1",
		ThreadTS:  "1.0",
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(slack.textMsgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(slack.textMsgs))
	}
	if slack.textMsgs[0].ChannelID != "U7" || !strings.Contains(slack.textMsgs[0].Text, "Webshop relaunch") {
		t.Fatalf("manager message = %+v", slack.textMsgs[0])
	}
	if slack.textMsgs[1].ThreadTS != "1.0" || !strings.Contains(slack.textMsgs[1].Text, "<@U7>") {
		t.Fatalf("confirmation = %+v", slack.textMsgs[1])
	}
}

func TestDeliverUnknownManagerEchoesFeedback(t *testing.T) {
	slack := &fakeSlack{byEmail: map[string]slackapi.Member{}}
	c, _ := NewCollector(slack, testSchedule(), Config{}, nil)

	err := c.Deliver(context.Background(), Submission{
		ProjectID: 12,
		Feedback:  "Ging goed.",
		UserID:    "U1",
		ChannelID: "U1",
		ThreadTS:  "1.0",
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(slack.textMsgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(slack.textMsgs))
	}
	if !strings.Contains(slack.textMsgs[0].Text, "kon de projectmanager niet vinden") {
		t.Fatalf("message = %q", slack.textMsgs[0].Text)
	}
}
