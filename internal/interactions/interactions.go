// Package interactions handles Block Kit actions and modal submissions:
// project team and manager lookups backed by Float, company info and
// ticket lookups backed by HubSpot, and the inline feedback inputs.
package interactions

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/stuurlui/compass/internal/blockkit"
	"github.com/stuurlui/compass/internal/feedback"
	"github.com/stuurlui/compass/internal/float"
	"github.com/stuurlui/compass/internal/hubspot"
	"github.com/stuurlui/compass/internal/slackapi"
)

const (
	ActionProjectTeam    = "get_project_team"
	ActionProjectManager = "get_project_manager"
	ActionCompanyInfo    = "get_company_info"
	ActionRecentTickets  = "get_recent_tickets"
	ActionSearchCompany  = "search_company"
)

type SlackUI interface {
	OpenView(ctx context.Context, triggerID string, view blockkit.View) error
	UpdateView(ctx context.Context, viewID string, view blockkit.View) error
	UpdateMessage(ctx context.Context, channelID, ts string, blocks []blockkit.Block) error
	LookupMemberByEmail(ctx context.Context, email string) (slackapi.Member, error)
}

type Schedule interface {
	Projects(ctx context.Context) ([]float.Project, error)
	ProjectByID(ctx context.Context, projectID int64) (float.Project, error)
	PersonByID(ctx context.Context, personID int64) (float.Person, error)
	AccountByID(ctx context.Context, accountID int64) (float.Account, error)
}

type CRM interface {
	SearchCompanies(ctx context.Context, keyword string) (hubspot.SearchResult, error)
	CompanyByID(ctx context.Context, companyID string, properties []string) (hubspot.Company, error)
	LatestTicketsByCompany(ctx context.Context, companyID string) (hubspot.TicketSearchResult, error)
	TicketPipelineStages(ctx context.Context) (map[string]string, error)
}

type Handler struct {
	slack    SlackUI
	schedule Schedule
	crm      CRM
	feedback *feedback.Collector
	portalID string
	log      *slog.Logger
}

type Options struct {
	Slack    SlackUI
	Schedule Schedule
	CRM      CRM
	Feedback *feedback.Collector
	// PortalID is the HubSpot portal used to build ticket deeplinks.
	PortalID string
	Logger   *slog.Logger
}

func New(opts Options) (*Handler, error) {
	if opts.Slack == nil {
		return nil, fmt.Errorf("slack ui is required")
	}
	if opts.Schedule == nil {
		return nil, fmt.Errorf("schedule source is required")
	}
	if opts.CRM == nil {
		return nil, fmt.Errorf("crm source is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		slack:    opts.Slack,
		schedule: opts.Schedule,
		crm:      opts.CRM,
		feedback: opts.Feedback,
		portalID: strings.TrimSpace(opts.PortalID),
		log:      log,
	}, nil
}

// Action is one block action from an interactive payload.
type Action struct {
	ID             string
	Value          string
	TriggerID      string
	ViewID         string
	ViewCallbackID string
	UserID         string
	ChannelID      string
	MessageTS      string
	ThreadTS       string
	MessageBlocks  []blockkit.Block
}

func (h *Handler) HandleAction(ctx context.Context, action Action) error {
	switch {
	case action.ID == ActionProjectTeam:
		return h.openProjectPicker(ctx, action.TriggerID, ActionProjectTeam, "Team opzoeken", "Team bekijken")
	case action.ID == ActionProjectManager:
		return h.openProjectPicker(ctx, action.TriggerID, ActionProjectManager, "Projectmanager opzoeken", "Projectmanager bekijken")
	case action.ID == ActionCompanyInfo:
		return h.openCompanySearch(ctx, action.TriggerID, ActionCompanyInfo, "Bedrijfsinformatie")
	case action.ID == ActionRecentTickets:
		return h.openCompanySearch(ctx, action.TriggerID, ActionRecentTickets, "Recente tickets")
	case action.ID == ActionSearchCompany:
		return h.searchCompany(ctx, action)
	case strings.HasPrefix(action.ID, feedback.BlockIDPrefix):
		return h.handleFeedback(ctx, action)
	default:
		h.log.Debug("interaction_unhandled_action", "action_id", action.ID)
		return nil
	}
}

func (h *Handler) openProjectPicker(ctx context.Context, triggerID, callbackID, title, submitText string) error {
	projects, err := h.schedule.Projects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	options := make([]blockkit.Option, 0, len(projects))
	for _, project := range projects {
		options = append(options, blockkit.Option{
			Text:  blockkit.Plain(project.Name),
			Value: strconv.FormatInt(project.ProjectID, 10),
		})
	}
	view := blockkit.Modal(blockkit.ModalOptions{
		CallbackID: callbackID,
		Title:      title,
		SubmitText: submitText,
		Blocks: []blockkit.Block{
			blockkit.SelectInput(blockkit.SelectOptions{
				BlockID:     "select_project",
				ActionID:    "select_project",
				Label:       "Projecten",
				Placeholder: "Selecteer een project",
				Options:     options,
			}),
		},
	})
	return h.slack.OpenView(ctx, triggerID, view)
}

func (h *Handler) openCompanySearch(ctx context.Context, triggerID, callbackID, title string) error {
	view := blockkit.Modal(blockkit.ModalOptions{
		CallbackID: callbackID,
		Title:      title,
		Blocks: []blockkit.Block{
			blockkit.DispatchInput(blockkit.InputOptions{
				BlockID:     ActionSearchCompany,
				ActionID:    ActionSearchCompany,
				Label:       "Bedrijf zoeken",
				Placeholder: "Vul hier een bedrijfsnaam in",
			}),
		},
	})
	return h.slack.OpenView(ctx, triggerID, view)
}

// searchCompany refreshes the open modal with the matching companies, or a
// "none found" section when the search came up empty.
func (h *Handler) searchCompany(ctx context.Context, action Action) error {
	keyword := strings.TrimSpace(action.Value)
	result, err := h.crm.SearchCompanies(ctx, keyword)
	if err != nil {
		return fmt.Errorf("search companies: %w", err)
	}

	blocks := []blockkit.Block{
		blockkit.DispatchInput(blockkit.InputOptions{
			BlockID:      ActionSearchCompany,
			ActionID:     ActionSearchCompany,
			Label:        "Bedrijfsnaam zoeken",
			Placeholder:  "Vul hier een bedrijfsnaam in",
			InitialValue: keyword,
		}),
	}
	if result.Total == 0 {
		blocks = append(blocks, blockkit.Section("Geen bedrijven gevonden."))
	} else {
		options := make([]blockkit.Option, 0, len(result.Results))
		for _, company := range result.Results {
			options = append(options, blockkit.Option{
				Text:  blockkit.Plain(company.Name()),
				Value: company.ID,
			})
		}
		blocks = append(blocks, blockkit.SelectInput(blockkit.SelectOptions{
			BlockID:     "select_company",
			ActionID:    "select_company",
			Label:       "Resultaten",
			Placeholder: "Selecteer een bedrijf",
			Options:     options,
		}))
	}

	title := "Bedrijfsinformatie"
	if action.ViewCallbackID == ActionRecentTickets {
		title = "Recente tickets"
	}
	view := blockkit.Modal(blockkit.ModalOptions{
		CallbackID: action.ViewCallbackID,
		Title:      title,
		SubmitText: "Bekijken",
		Blocks:     blocks,
	})
	return h.slack.UpdateView(ctx, action.ViewID, view)
}

func (h *Handler) handleFeedback(ctx context.Context, action Action) error {
	if h.feedback == nil {
		return fmt.Errorf("feedback collector is not configured")
	}
	rawID := strings.TrimPrefix(action.ID, feedback.BlockIDPrefix)
	projectID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid feedback project id %q", rawID)
	}

	messageTS := action.ThreadTS
	if messageTS == "" {
		messageTS = action.MessageTS
	}

	// Drop the answered input from the original check-in message.
	kept := make([]blockkit.Block, 0, len(action.MessageBlocks))
	for _, block := range action.MessageBlocks {
		if block.BlockID == action.ID {
			continue
		}
		kept = append(kept, block)
	}
	if len(kept) > 0 && len(kept) < len(action.MessageBlocks) {
		if err := h.slack.UpdateMessage(ctx, action.ChannelID, messageTS, kept); err != nil {
			h.log.Warn("interaction_feedback_update_error", "channel_id", action.ChannelID, "error", err.Error())
		}
	}

	return h.feedback.Deliver(ctx, feedback.Submission{
		ProjectID: projectID,
		Feedback:  strings.TrimSpace(action.Value),
		UserID:    action.UserID,
		ChannelID: action.ChannelID,
		ThreadTS:  messageTS,
	})
}

// Submission is one modal submit, with the selected input values keyed by
// block id then action id.
type Submission struct {
	CallbackID string
	TriggerID  string
	Values     map[string]map[string]string
}

func (s Submission) value(blockID, actionID string) string {
	if s.Values == nil {
		return ""
	}
	return strings.TrimSpace(s.Values[blockID][actionID])
}

func (h *Handler) HandleViewSubmission(ctx context.Context, sub Submission) error {
	switch sub.CallbackID {
	case ActionProjectTeam:
		return h.showProjectTeam(ctx, sub)
	case ActionProjectManager:
		return h.showProjectManager(ctx, sub)
	case ActionCompanyInfo:
		return h.showCompanyInfo(ctx, sub)
	case ActionRecentTickets:
		return h.showRecentTickets(ctx, sub)
	default:
		h.log.Debug("interaction_unhandled_view", "callback_id", sub.CallbackID)
		return nil
	}
}

func (h *Handler) selectedProject(ctx context.Context, sub Submission) (float.Project, error) {
	raw := sub.value("select_project", "select_project")
	projectID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return float.Project{}, fmt.Errorf("invalid project id %q", raw)
	}
	return h.schedule.ProjectByID(ctx, projectID)
}

func (h *Handler) showProjectTeam(ctx context.Context, sub Submission) error {
	project, err := h.selectedProject(ctx, sub)
	if err != nil {
		return err
	}

	var blocks []blockkit.Block
	if len(project.ProjectTeam) == 0 {
		blocks = append(blocks, blockkit.Section("Geen teamleden gevonden."))
	} else {
		blocks = append(blocks, blockkit.Section("De volgende collega's werk(t)en aan dit project:"))
		for i, teamMember := range project.ProjectTeam {
			person, err := h.schedule.PersonByID(ctx, teamMember.PeopleID)
			if err != nil {
				h.log.Warn("interaction_team_member_error", "people_id", teamMember.PeopleID, "error", err.Error())
				continue
			}
			member, err := h.slack.LookupMemberByEmail(ctx, person.Email)
			if err != nil {
				h.log.Warn("interaction_team_member_error", "people_id", teamMember.PeopleID, "error", err.Error())
				continue
			}
			blocks = append(blocks, blockkit.Section(fmt.Sprintf("*Naam:* <@%s>\n*E-mail:* %s", member.ID, person.Email)))
			if i < len(project.ProjectTeam)-1 {
				blocks = append(blocks, blockkit.Divider())
			}
		}
		blocks = append(blocks, blockkit.Context("Deze informatie is dynamisch verzameld uit Float, en kan onvolledig zijn."))
	}

	view := blockkit.Modal(blockkit.ModalOptions{
		CallbackID: "project_team",
		Title:      "Team opzoeken",
		Blocks:     blocks,
	})
	return h.slack.OpenView(ctx, sub.TriggerID, view)
}

func (h *Handler) showProjectManager(ctx context.Context, sub Submission) error {
	project, err := h.selectedProject(ctx, sub)
	if err != nil {
		return err
	}
	manager, err := h.schedule.AccountByID(ctx, project.ProjectManager)
	if err != nil {
		return fmt.Errorf("fetch project manager: %w", err)
	}
	member, err := h.slack.LookupMemberByEmail(ctx, manager.Email)
	if err != nil {
		return fmt.Errorf("lookup manager in slack: %w", err)
	}

	view := blockkit.Modal(blockkit.ModalOptions{
		CallbackID: "project_manager",
		Title:      "Projectmanager",
		Blocks: []blockkit.Block{
			blockkit.Section(fmt.Sprintf("*Project:* %s\n*Projectmanager:* <@%s>\n*E-mail:* %s", project.Name, member.ID, manager.Email)),
		},
	})
	return h.slack.OpenView(ctx, sub.TriggerID, view)
}

func (h *Handler) showCompanyInfo(ctx context.Context, sub Submission) error {
	companyID := sub.value("select_company", "select_company")
	if companyID == "" {
		return fmt.Errorf("no company selected")
	}
	company, err := h.crm.CompanyByID(ctx, companyID, []string{
		"name", "createdate", "hs_lastmodifieddate", "industry", "phone", "website",
	})
	if err != nil {
		return fmt.Errorf("fetch company: %w", err)
	}

	view := blockkit.Modal(blockkit.ModalOptions{
		CallbackID: "company_info",
		Title:      "Bedrijfsinformatie",
		Blocks: []blockkit.Block{
			blockkit.Section(strings.Join([]string{
				"*Naam:* " + company.Name(),
				"*Hubspot ID:* " + company.ID,
				"*Gemaakt op:* " + formatHubSpotDate(company.Properties["createdate"]),
				"*Laatst gewijzigd op:* " + formatHubSpotDate(company.Properties["hs_lastmodifieddate"]),
				"*Industrie:* " + orUnavailable(company.Properties["industry"]),
				"*Telefoon:* " + orUnavailable(company.Properties["phone"]),
				"*Website:* " + orUnavailable(company.Properties["website"]),
			}, "\n")),
		},
	})
	return h.slack.OpenView(ctx, sub.TriggerID, view)
}

func (h *Handler) showRecentTickets(ctx context.Context, sub Submission) error {
	companyID := sub.value("select_company", "select_company")
	if companyID == "" {
		return fmt.Errorf("no company selected")
	}
	tickets, err := h.crm.LatestTicketsByCompany(ctx, companyID)
	if err != nil {
		return fmt.Errorf("fetch tickets: %w", err)
	}

	var blocks []blockkit.Block
	if len(tickets.Results) == 0 {
		blocks = append(blocks, blockkit.Section("Geen tickets gevonden."))
	} else {
		stages, err := h.crm.TicketPipelineStages(ctx)
		if err != nil {
			return fmt.Errorf("fetch pipeline stages: %w", err)
		}
		// Oldest first, matching the order tickets were raised.
		for i := len(tickets.Results) - 1; i >= 0; i-- {
			ticket := tickets.Results[i]
			blocks = append(blocks, blockkit.LinkButton(blockkit.LinkButtonOptions{
				Text:       "*Onderwerp:* " + ticket.Properties["subject"],
				ButtonText: "Bekijk op HubSpot",
				ActionID:   "view_ticket",
				Value:      "view_ticket",
				URL:        fmt.Sprintf("https://app.hubspot.com/contacts/%s/tickets/%s", h.portalID, ticket.ID),
			}))
			if content := strings.TrimSpace(ticket.Properties["content"]); content != "" {
				blocks = append(blocks, blockkit.Section(truncate(content, 200)))
			}
			blocks = append(blocks,
				blockkit.Context(fmt.Sprintf("*Aangemaakt op:* %s\n*Status:* %s",
					formatHubSpotDate(ticket.Properties["createdate"]),
					stages[ticket.Properties["hs_pipeline_stage"]])),
				blockkit.Whitespace(),
			)
			if i > 0 {
				blocks = append(blocks, blockkit.Divider())
			}
		}
	}

	view := blockkit.Modal(blockkit.ModalOptions{
		CallbackID: "company_tickets",
		Title:      "Recente tickets",
		Blocks:     blocks,
	})
	return h.slack.OpenView(ctx, sub.TriggerID, view)
}

func formatHubSpotDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Niet beschikbaar"
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if millis, numErr := strconv.ParseInt(raw, 10, 64); numErr == nil {
			parsed = time.UnixMilli(millis).UTC()
		} else {
			return raw
		}
	}
	return parsed.Format("2-1-2006")
}

func orUnavailable(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Niet beschikbaar"
	}
	return value
}

// truncate cuts on rune boundaries so multi-byte text never ends in a
// garbled character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
