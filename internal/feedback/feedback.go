// Package feedback implements the daily planning check-in: every Slack
// member with a Float schedule gets a DM listing today's tasks with an
// inline feedback input per project, and submitted feedback is forwarded
// to the project manager.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/stuurlui/compass/internal/blockkit"
	"github.com/stuurlui/compass/internal/float"
	"github.com/stuurlui/compass/internal/slackapi"
)

const BlockIDPrefix = "feedback_"

type SlackDirectory interface {
	ListMembers(ctx context.Context) ([]slackapi.Member, error)
	LookupMemberByEmail(ctx context.Context, email string) (slackapi.Member, error)
	PostBlocks(ctx context.Context, channelID, text, threadTS string, blocks []blockkit.Block) error
	PostMessage(ctx context.Context, channelID, text, threadTS string) error
}

type Schedule interface {
	People(ctx context.Context) ([]float.Person, error)
	TasksForToday(ctx context.Context, personID int64) ([]float.Task, error)
	ProjectByID(ctx context.Context, projectID int64) (float.Project, error)
	TaskByID(ctx context.Context, taskID int64) (float.Task, error)
	AccountByID(ctx context.Context, accountID int64) (float.Account, error)
}

type Config struct {
	// Development restricts the round to the developer's own account so a
	// test run never pings the whole workspace.
	Development         bool
	DeveloperSlackEmail string
	DeveloperFloatEmail string
}

type Collector struct {
	slack    SlackDirectory
	schedule Schedule
	cfg      Config
	log      *slog.Logger
	nowFn    func() time.Time
}

func NewCollector(slack SlackDirectory, schedule Schedule, cfg Config, log *slog.Logger) (*Collector, error) {
	if slack == nil {
		return nil, fmt.Errorf("slack directory is required")
	}
	if schedule == nil {
		return nil, fmt.Errorf("schedule source is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Collector{
		slack:    slack,
		schedule: schedule,
		cfg:      cfg,
		log:      log,
		nowFn:    time.Now,
	}, nil
}

// Run executes one feedback round. Members without a Float account or
// without tasks today are skipped silently.
func (c *Collector) Run(ctx context.Context) error {
	members, err := c.slack.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("list slack members: %w", err)
	}
	people, err := c.schedule.People(ctx)
	if err != nil {
		return fmt.Errorf("list float people: %w", err)
	}
	peopleByEmail := make(map[string]float.Person, len(people))
	for _, p := range people {
		peopleByEmail[strings.ToLower(strings.TrimSpace(p.Email))] = p
	}

	for _, member := range members {
		if member.IsBot || member.Deleted {
			continue
		}
		email := strings.ToLower(strings.TrimSpace(member.Profile.Email))
		if email == "" {
			continue
		}
		if c.cfg.Development {
			if email != strings.ToLower(strings.TrimSpace(c.cfg.DeveloperSlackEmail)) {
				continue
			}
			email = strings.ToLower(strings.TrimSpace(c.cfg.DeveloperFloatEmail))
		}
		person, ok := peopleByEmail[email]
		if !ok {
			continue
		}
		if err := c.sendCheckIn(ctx, member.ID, person); err != nil {
			c.log.Warn("feedback_checkin_error", "member_id", member.ID, "error", err.Error())
		}
	}
	return nil
}

func (c *Collector) sendCheckIn(ctx context.Context, memberID string, person float.Person) error {
	tasks, err := c.schedule.TasksForToday(ctx, person.PeopleID)
	if err != nil {
		return fmt.Errorf("fetch tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil
	}

	blocks := []blockkit.Block{
		blockkit.Section(fmt.Sprintf(":wave: Ahoy <@%s>, laten we je planning voor vandaag doornemen. Hou het kort; focus op bijzonderheden.", memberID)),
		blockkit.Context("Deze terugkoppeling vervangt *niet* de terugkoppeling in Trello en HubSpot."),
		blockkit.Whitespace(),
		blockkit.Divider(),
	}

	for _, task := range tasks {
		taskBlocks, err := c.taskBlocks(ctx, task)
		if err != nil {
			return err
		}
		blocks = append(blocks, taskBlocks...)
	}

	fallback := "Dagelijkse terugkoppeling voor " + c.nowFn().Format("Mon Jan 2 2006")
	return c.slack.PostBlocks(ctx, memberID, fallback, "", blocks)
}

func (c *Collector) taskBlocks(ctx context.Context, task float.Task) ([]blockkit.Block, error) {
	project, err := c.schedule.ProjectByID(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("fetch project %d: %w", task.ProjectID, err)
	}
	manager, err := c.schedule.AccountByID(ctx, project.ProjectManager)
	if err != nil {
		return nil, fmt.Errorf("fetch project manager %d: %w", project.ProjectManager, err)
	}

	blocks := []blockkit.Block{
		blockkit.Section(fmt.Sprintf("Je stond vandaag %.4g uur ingepland voor *%s*.", task.Hours, project.Name)),
	}

	if task.TaskID != 0 {
		if detail, err := c.schedule.TaskByID(ctx, task.TaskID); err == nil && strings.TrimSpace(detail.Name) != "" {
			blocks = append(blocks, blockkit.Context("*Taak*: "+detail.Name))
		}
	}

	feedbackID := BlockIDPrefix + strconv.FormatInt(task.ProjectID, 10)
	blocks = append(blocks,
		blockkit.DispatchInput(blockkit.InputOptions{
			BlockID:     feedbackID,
			ActionID:    feedbackID,
			Label:       "Terugkoppeling naar " + manager.Name,
			Placeholder: "Hoe is het gegaan?",
		}),
		blockkit.Whitespace(),
		blockkit.Divider(),
	)
	return blocks, nil
}

// Submission is one filled-in feedback input, parsed from the block action
// payload by the event layer.
type Submission struct {
	ProjectID int64
	Feedback  string
	UserID    string
	ChannelID string
	ThreadTS  string
}

// Deliver forwards one submission to the project's manager and confirms in
// the originating thread. When the manager cannot be resolved to a Slack
// account the feedback is echoed back instead of dropped.
func (c *Collector) Deliver(ctx context.Context, sub Submission) error {
	project, err := c.schedule.ProjectByID(ctx, sub.ProjectID)
	if err != nil {
		return fmt.Errorf("fetch project %d: %w", sub.ProjectID, err)
	}

	managerSlackID := sub.UserID
	if !c.cfg.Development {
		manager, err := c.schedule.AccountByID(ctx, project.ProjectManager)
		if err != nil {
			return fmt.Errorf("fetch project manager: %w", err)
		}
		slackManager, err := c.slack.LookupMemberByEmail(ctx, manager.Email)
		if err != nil {
			return c.slack.PostMessage(ctx, sub.ChannelID,
				fmt.Sprintf("Bedankt voor de terugkoppeling voor *%s*. Ik kon de projectmanager niet vinden, dus hier is je terugkoppeling: %s.", project.Name, sub.Feedback),
				sub.ThreadTS)
		}
		managerSlackID = slackManager.ID
	}

	if err := c.slack.PostMessage(ctx, managerSlackID,
		fmt.Sprintf(":wave: <@%s>, hierbij een korte terugkoppeling voor *%s*.\n\n*Terugkoppeling*\n%s", managerSlackID, project.Name, sub.Feedback),
		""); err != nil {
		return fmt.Errorf("forward feedback: %w", err)
	}
	return c.slack.PostMessage(ctx, sub.ChannelID,
		fmt.Sprintf("Bedankt voor de terugkoppeling voor *%s*. Ik heb het doorgestuurd naar <@%s>.", project.Name, managerSlackID),
		sub.ThreadTS)
}
